package redis

// Key prefixes for primary entity storage.
const (
	prefixSub        = "courier:sub:"
	prefixDeadLetter = "courier:dlt:"
)

// Key prefixes for unique indexes.
const (
	uniqueSubPair = "courier:u:sub:pair:" // + ownerID|eventType -> sub ID
)

// Key prefixes for sorted set indexes.
const (
	zSubOwner      = "courier:z:sub:owner:" // + owner ID, scored by creation time
	zDeadLetterAll = "courier:z:dlt:all"    // scored by failure time
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// pairIndexKey returns the uniqueness guard key for an (owner, event type) pair.
func pairIndexKey(ownerID, eventType string) string {
	return uniqueSubPair + ownerID + "|" + eventType
}
