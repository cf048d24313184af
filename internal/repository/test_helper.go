package repository

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	// TranslateError matches the production config so constraint
	// violations map to gorm sentinels here too.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&CustomerEntity{},
		&CargoEntity{},
		&CargoHistoryEntity{},
		&InvoiceEntity{},
		&PaymentEntity{},
		&TransactionEntity{},
		&ReleaseOrderEntity{},
		&WalletEntity{},
		&WalletTransactionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return &testDB{
		DB:    pgDB,
		rawDB: db,
	}
}
