package manager

import (
	"errors"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/internal/shard"
)

var (
	// ErrInvalidEntityToken is returned when an entity token is not configured.
	ErrInvalidEntityToken = errors.New("entitymanager: invalid entity token")

	// ErrInvalidIndexToken is returned when an index token is not configured.
	ErrInvalidIndexToken = errors.New("entitymanager: invalid index token")

	// ErrInvalidGeneratedProperty is returned when a generated property is not configured.
	ErrInvalidGeneratedProperty = errors.New("entitymanager: invalid generated property")

	// ErrInvalidTranscodedProperty is returned when a property has no transcode.
	ErrInvalidTranscodedProperty = errors.New("entitymanager: invalid transcoded property")

	// ErrMissingTimestampProperty is returned when a record lacks its entity's timestamp.
	ErrMissingTimestampProperty = errors.New("entitymanager: missing timestamp property")

	// ErrMissingUniqueProperty is returned when a record lacks its entity's unique property.
	ErrMissingUniqueProperty = errors.New("entitymanager: missing unique property")

	// ErrInvalidGeneratedPropertyValue is returned when a generated property value cannot be decoded,
	// or when an element value holds a delimiter it would be split on.
	ErrInvalidGeneratedPropertyValue = errors.New("entitymanager: invalid generated property value")

	// ErrIndexRehydrationMismatch is returned when a dehydrated index value has the wrong element count.
	ErrIndexRehydrationMismatch = errors.New("entitymanager: index rehydration mismatch")

	// ErrDehydratedLengthMismatch is returned when a dehydrated page key map does not fit the shard space.
	ErrDehydratedLengthMismatch = errors.New("entitymanager: dehydrated page key map length mismatch")

	// ErrInconsistentHashKeys is returned when queried indexes do not share one hash key.
	ErrInconsistentHashKeys = errors.New("entitymanager: indexes have inconsistent hash keys")

	// ErrInvalidLimit is returned when a query limit is negative and not Unlimited.
	ErrInvalidLimit = errors.New("entitymanager: invalid limit")

	// ErrInvalidPageSize is returned when a query page size is negative.
	ErrInvalidPageSize = errors.New("entitymanager: invalid page size")

	// ErrMissingHashKeyComponent is returned when a query item cannot complete a
	// sharded generated index hash key.
	ErrMissingHashKeyComponent = errors.New("entitymanager: missing hash key component")

	// ErrInvalidToken is returned when a page key map token cannot be decoded.
	ErrInvalidToken = errors.New("entitymanager: invalid page key map token")

	// ErrShardSpaceTooLarge is returned when a shard bump's address space is too large to enumerate.
	ErrShardSpaceTooLarge = shard.ErrSpaceTooLarge

	// ErrInvalidTranscodeValue is returned when a value does not fit its transcode.
	ErrInvalidTranscodeValue = config.ErrInvalidTranscodeValue
)
