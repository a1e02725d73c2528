package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

// BookkeepingFields are maintained by the store and never count as changes.
var BookkeepingFields = []string{"created_at", "updated_at"}

// FieldSet is a set of persisted field names, keyed by their JSON names.
type FieldSet map[string]struct{}

// NewFieldSet lists the declared fields of entity's struct type, minus the
// bookkeeping fields and the primary key. Compute it once at startup.
func NewFieldSet(entity any, primaryKey string) FieldSet {
	typ := reflect.TypeOf(entity)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	set := FieldSet{}
	for i := 0; i < typ.NumField(); i++ {
		name, ok := fieldName(typ.Field(i))
		if ok {
			set[name] = struct{}{}
		}
	}
	delete(set, primaryKey)
	for _, f := range BookkeepingFields {
		delete(set, f)
	}
	return set
}

func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch tag {
	case "-":
		return "", false
	case "":
		return f.Name, true
	}
	return tag, true
}

func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// HasAny reports whether at least one of fields is in s.
func (s FieldSet) HasAny(fields ...string) bool {
	for _, f := range fields {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// Sorted returns the field names in lexical order.
func (s FieldSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ChangeTracker compares an entity against its persisted snapshot.
type ChangeTracker[T domain.Entity] struct {
	fields  FieldSet
	index   map[string]int
	fetcher ports.SnapshotFetcher[T]
}

// NewChangeTracker binds a field set computed at startup to a snapshot source.
// Names in fields that T does not declare are ignored.
func NewChangeTracker[T domain.Entity](fields FieldSet, fetcher ports.SnapshotFetcher[T]) *ChangeTracker[T] {
	var zero T
	typ := reflect.TypeOf(zero)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	index := make(map[string]int, len(fields))
	for i := 0; i < typ.NumField(); i++ {
		name, ok := fieldName(typ.Field(i))
		if ok && fields.Has(name) {
			index[name] = i
		}
	}
	return &ChangeTracker[T]{fields: fields, index: index, fetcher: fetcher}
}

// Fields returns the tracked field set.
func (t *ChangeTracker[T]) Fields() FieldSet { return t.fields }

// ChangedFields returns the tracked fields whose current value differs from the
// persisted one. known is false when current has no primary key or no persisted
// row; an empty set with known == true means nothing changed.
func (t *ChangeTracker[T]) ChangedFields(ctx context.Context, current T) (changed FieldSet, known bool, err error) {
	cur := reflect.ValueOf(current)
	if !cur.IsValid() || (cur.Kind() == reflect.Pointer && cur.IsNil()) {
		return nil, false, nil
	}
	if current.PrimaryKey() == "" {
		return nil, false, nil
	}

	prev, err := t.fetcher.FetchSnapshot(ctx, current.PrimaryKey())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	old := reflect.ValueOf(prev)
	if !old.IsValid() || (old.Kind() == reflect.Pointer && old.IsNil()) {
		return nil, false, nil
	}
	cur = reflect.Indirect(cur)
	old = reflect.Indirect(old)

	changed = FieldSet{}
	for name, i := range t.index {
		if !reflect.DeepEqual(cur.Field(i).Interface(), old.Field(i).Interface()) {
			changed[name] = struct{}{}
		}
	}
	return changed, true, nil
}
