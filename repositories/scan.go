package repositories

import (
	"github.com/dgraph-io/badger/v4"
)

// ScanMessages walks every stored message in key order, conversation by
// conversation. It only reads, so db may be opened read-only.
func ScanMessages(db *badger.DB, fn func(key string, message DiskMessage) error) error {
	prefix := []byte(messagePrefix)
	return db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				return fn(key, message)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
