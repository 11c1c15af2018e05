package ledger

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// newID returns a time-sortable ULID string. IDs minted within the same
// millisecond stay lexicographically increasing.
func newID(at time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(at.UTC()), mono)
	if err != nil {
		// Only a clock going backwards past the monotonic window gets here.
		id = ulid.MustNew(ulid.Timestamp(time.Now().UTC()), mono)
	}
	return id.String()
}
