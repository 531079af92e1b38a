// Package store описывает контракт записи для плагинов хранилищ.
package store

// Record — единица сохранения. Kind определяет семантику ключа:
// track и alert — упорядоченные последовательности с ёмкостью,
// distance — одиночное перезаписываемое значение.
type Record interface {
	Kind() string
	Key() string
	Cap() int
	ToBytes() ([]byte, error)
}
