package drivers

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biqute/qtics/instrument"
)

// fakeDevice answers newline-terminated commands on a loopback listener and
// records everything it receives. Stubbed replies are served verbatim;
// un-stubbed queries get "1" for *OPC? and "0" otherwise, so a missing stub
// never turns into a read timeout.
type fakeDevice struct {
	lis net.Listener

	mu      sync.Mutex
	cmds    []string
	replies map[string]string
	blocks  map[string][]float64
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeDevice{
		lis:     lis,
		replies: make(map[string]string),
		blocks:  make(map[string][]float64),
	}
	t.Cleanup(func() { lis.Close() })
	go f.serve()
	return f
}

func (f *fakeDevice) port() int {
	return f.lis.Addr().(*net.TCPAddr).Port
}

func (f *fakeDevice) config() instrument.NetworkConfig {
	return instrument.NetworkConfig{Port: f.port(), Timeout: 2 * time.Second, Settle: time.Millisecond}
}

func (f *fakeDevice) stub(cmd, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[cmd] = reply
}

func (f *fakeDevice) stubBlock(cmd string, data []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[cmd] = data
}

// commands returns everything received, with *OPC? polls dropped so
// sequences stay stable across hold points. Delivery over the loopback
// socket is asynchronous, so it first waits for in-flight traffic to settle.
func (f *fakeDevice) commands() []string {
	deadline := time.Now().Add(2 * time.Second)
	last := -1
	for {
		f.mu.Lock()
		n := len(f.cmds)
		f.mu.Unlock()
		if n == last || time.Now().After(deadline) {
			break
		}
		last = n
		time.Sleep(20 * time.Millisecond)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.cmds))
	for _, c := range f.cmds {
		if c == "*OPC?" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// received reports whether cmd has reached the device, waiting briefly for
// asynchronous delivery so callers can assert right after a fire-and-forget
// write.
func (f *fakeDevice) received(cmd string) bool {
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		for _, c := range f.cmds {
			if c == cmd {
				f.mu.Unlock()
				return true
			}
		}
		f.mu.Unlock()

		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeDevice) serve() {
	for {
		conn, err := f.lis.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeDevice) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)

		f.mu.Lock()
		f.cmds = append(f.cmds, cmd)
		reply, hasReply := f.replies[cmd]
		block, hasBlock := f.blocks[cmd]
		f.mu.Unlock()

		switch {
		case hasBlock:
			instrument.WriteBinaryBlock(conn, block, instrument.BlockFloat64)
		case hasReply:
			conn.Write([]byte(reply + "\n"))
		case cmd == "*OPC?":
			conn.Write([]byte("1\n"))
		case strings.Contains(cmd, "?"):
			conn.Write([]byte("0\n"))
		}
	}
}
