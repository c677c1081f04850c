package pending_test

import (
	"fmt"
	"time"

	"github.com/shuakami/watcher/v2/pending"
)

func ExampleCollection() {
	c := pending.NewCollection()
	now := time.Now()

	l := c.Lock()
	l.Add("/src/a.go", now, pending.ViaNotify)
	l.Add("/src/a.go", now, pending.ViaNotify)
	l.Add("/srcfoo", now, pending.ViaNotify)
	l.Add("/src", now, pending.Recursive) // 覆盖 /src/a.go
	l.Add("/src/b.go", now, pending.ViaNotify)
	l.Unlock()
	c.Ping()

	l, signaled := c.LockAndWait(pending.NoTimeout)
	items := l.StealItems()
	l.Unlock()

	fmt.Println("signaled:", signaled)
	for _, it := range items {
		fmt.Println(it.Flags, it.Path)
	}
	// Output:
	// signaled: true
	// RECURSIVE /src
	// VIA_NOTIFY /srcfoo
}
