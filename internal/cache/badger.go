package cache

import (
	"encoding/json"
	"net"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
)

// nameKeyPrefix namespaces cache entries in the shared Badger keyspace the
// way the teacher's metadata store namespaces its own key prefixes.
const nameKeyPrefix = "n:"

// storedService is the JSON-serializable form of ipservice.IPService; net.IP
// marshals fine on its own, but keeping a dedicated struct here means the
// on-disk format doesn't silently change if IPService ever grows a field
// that isn't meant to be persisted.
type storedService struct {
	Addr net.IP `json:"addr"`
	Port uint16 `json:"port"`
}

// BadgerStore is the persistent Store option: the name cache survives a
// process restart, so cached name entries don't need re-resolving on
// every boot.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if absent) a Badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(key string) ([]ipservice.IPService, bool) {
	var services []ipservice.IPService
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(nameKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var stored []storedService
			if err := json.Unmarshal(val, &stored); err != nil {
				return err
			}
			services = fromStored(stored)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return services, true
}

func (b *BadgerStore) Set(key string, services []ipservice.IPService, ttl time.Duration) {
	val, err := json.Marshal(toStored(services))
	if err != nil {
		return
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(nameKeyPrefix+key), val).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

func (b *BadgerStore) Delete(key string) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(nameKeyPrefix + key))
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func toStored(services []ipservice.IPService) []storedService {
	out := make([]storedService, 0, len(services))
	for _, s := range services {
		out = append(out, storedService{Addr: s.Addr, Port: s.Port})
	}
	return out
}

func fromStored(stored []storedService) []ipservice.IPService {
	out := make([]ipservice.IPService, 0, len(stored))
	for _, s := range stored {
		out = append(out, ipservice.IPService{Addr: s.Addr, Port: s.Port})
	}
	return out
}
