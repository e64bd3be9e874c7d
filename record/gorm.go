package record

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GormRecord adapts a gorm model struct to the Record interface. Field
// names resolve by the usual gorm naming convention, so the storage field
// "avatar_file_name" maps to the struct field AvatarFileName.
type GormRecord struct {
	db       *gorm.DB
	model    any
	fillable []string
}

// NewGormRecord wraps a pointer to a gorm model. The db handle may be nil
// for detached use (path/URL computation only); Persist and SyncState then
// report an error.
func NewGormRecord(db *gorm.DB, model any) *GormRecord {
	return &GormRecord{db: db, model: model}
}

// SetFillable restricts which fields SetField is allowed to touch besides
// the filename and queue fields.
func (r *GormRecord) SetFillable(fields []string) *GormRecord {
	r.fillable = fields
	return r
}

// Model returns the wrapped model pointer.
func (r *GormRecord) Model() any {
	return r.model
}

func (r *GormRecord) GetField(name string) any {
	f := r.field(name)
	if !f.IsValid() {
		return nil
	}

	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
	}

	return f.Interface()
}

func (r *GormRecord) SetField(name string, value any) {
	f := r.field(name)
	if !f.IsValid() || !f.CanSet() {
		return
	}

	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return
	}

	v := reflect.ValueOf(value)

	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case f.Kind() == reflect.Pointer && v.Type().AssignableTo(f.Type().Elem()):
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(v)
		f.Set(p)
	case v.Type().ConvertibleTo(f.Type()) && v.Kind() != reflect.String && f.Kind() != reflect.String:
		f.Set(v.Convert(f.Type()))
	case f.Type() == reflect.TypeOf(time.Time{}) || (f.Kind() == reflect.Pointer && f.Type().Elem() == reflect.TypeOf(time.Time{})):
		// Unconvertible time writes are dropped rather than panicking.
	}
}

func (r *GormRecord) PrimaryKey() any {
	return r.GetField("id")
}

func (r *GormRecord) TypeName() string {
	t := reflect.TypeOf(r.model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.PkgPath() == "" {
		return t.Name()
	}

	return t.PkgPath() + "." + t.Name()
}

func (r *GormRecord) Fillable() []string {
	return r.fillable
}

func (r *GormRecord) Persist() error {
	if r.db == nil {
		return fmt.Errorf("record is not bound to a database")
	}

	return r.db.Save(r.model).Error
}

// SyncState updates one queue state column directly so the transition is
// visible without going through model save hooks.
func (r *GormRecord) SyncState(field string, state int) error {
	if r.db == nil {
		return fmt.Errorf("record is not bound to a database")
	}

	return r.db.Model(r.model).UpdateColumn(field, state).Error
}

func (r *GormRecord) field(name string) reflect.Value {
	v := reflect.ValueOf(r.model)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	return v.FieldByName(fieldName(name))
}

// fieldName converts a snake_case storage field to the exported struct
// field gorm would map it to, with the usual ID initialism.
func fieldName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p == "id" {
			parts[i] = "ID"
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}

	return strings.Join(parts, "")
}

// Writable reports whether the manager may write the given field, given
// the record's allow-set. The filename field for an attachment is always
// writable; queue fields are gated by the caller on queueability instead.
func Writable(r Record, field string) bool {
	fillable := r.Fillable()
	if fillable == nil {
		return true
	}

	return slices.Contains(fillable, field)
}
