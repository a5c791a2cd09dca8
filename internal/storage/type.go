package storage

type Type string

const (
	Mongo Type = "mongo"
	PG    Type = "pg"
	ES    Type = "es"
	InMem Type = "in_mem"
)

var Types = []Type{Mongo, PG, ES, InMem}

func (t Type) Valid() bool {
	switch t {
	case Mongo, PG, ES, InMem:
		return true
	}
	return false
}

type StoreError string

const (
	ErrUnsupportedStore StoreError = "unsupported store type: %s"
)

func (e StoreError) Error() string {
	return string(e)
}
