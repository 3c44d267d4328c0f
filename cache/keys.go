package cache

import "strconv"

// Namespaces of the guest resource.
const (
	NamespaceList    = "list"
	NamespaceDetail  = "detail"
	NamespaceStats   = "stats"
	NamespaceHistory = "history"
)

// Keys builds the hierarchical keys and invalidation patterns of one resource.
//
//	guests:list:{serialized query}
//	guests:detail:{id}
//	guests:stats
//	guests:history:{page}:{limit}
//	guests:history:{id}:{page}:{limit}
type Keys struct {
	prefix     string
	serializer KeySerializer
}

// NewKeys returns a key builder rooted at prefix.
func NewKeys(prefix string, serializer KeySerializer) Keys {
	if serializer == nil {
		serializer = NewDefaultKeySerializer()
	}
	return Keys{prefix: prefix, serializer: serializer}
}

// Prefix returns the resource root.
func (k Keys) Prefix() string { return k.prefix }

func (k Keys) join(parts ...string) string {
	out := k.prefix
	for _, p := range parts {
		out += KeySeparator + p
	}
	return out
}

// List keys one listing by its normalized query.
func (k Keys) List(query any) string {
	return k.serializer.SerializeKey(k.join(NamespaceList), query)
}

// Detail keys the cached detail of id.
func (k Keys) Detail(id int64) string {
	return k.join(NamespaceDetail, strconv.FormatInt(id, 10))
}

// Stats keys the aggregate counts.
func (k Keys) Stats() string {
	return k.join(NamespaceStats)
}

// History keys one page of the global audit trail.
func (k Keys) History(page, limit int) string {
	return k.join(NamespaceHistory, strconv.Itoa(page), strconv.Itoa(limit))
}

// GuestHistory keys one page of a single guest's audit trail.
func (k Keys) GuestHistory(id int64, page, limit int) string {
	return k.join(NamespaceHistory, strconv.FormatInt(id, 10), strconv.Itoa(page), strconv.Itoa(limit))
}

// All matches every key of the resource.
func (k Keys) All() string { return k.join("*") }

// Namespace matches every key below one namespace.
func (k Keys) Namespace(ns string) string { return k.join(ns, "*") }

// DetailPattern matches the cached detail of a single id.
func (k Keys) DetailPattern(id int64) string { return k.Detail(id) }
