package ftp_test

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	testUser     = "alice"
	testPassword = "s3cret"
)

// fakeServer is a minimal passive mode FTP server keeping files in memory.
type fakeServer struct {
	listener net.Listener

	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	logins atomic.Int32
	quits  atomic.Int32
}

func newFakeServer() *fakeServer {
	GinkgoHelper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	s := &fakeServer{
		listener: listener,
		files:    make(map[string][]byte),
		dirs:     map[string]bool{"/": true},
	}
	go s.serve()
	DeferCleanup(listener.Close)
	return s
}

func (s *fakeServer) Host() string {
	return "127.0.0.1"
}

func (s *fakeServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeServer) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

func (s *fakeServer) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

func (s *fakeServer) Content(name string) string {
	data, _ := s.Get(name)
	return string(data)
}

func (s *fakeServer) HasDir(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[name]
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(format string, args ...any) {
		_, _ = fmt.Fprintf(conn, format+"\r\n", args...)
	}
	var (
		user   string
		data   net.Listener
		offset int64
	)
	defer func() {
		if data != nil {
			_ = data.Close()
		}
	}()
	acceptData := func() net.Conn {
		if data == nil {
			return nil
		}
		defer func() { data = nil }()
		dc, err := data.Accept()
		_ = data.Close()
		if err != nil {
			return nil
		}
		return dc
	}

	reply("220 fake ftp ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
		switch strings.ToUpper(cmd) {
		case "USER":
			user = arg
			reply("331 password required")
		case "PASS":
			if user != testUser || arg != testPassword {
				reply("530 login incorrect")
				continue
			}
			s.logins.Add(1)
			reply("230 logged in")
		case "FEAT":
			reply("211-Features:\r\n SIZE\r\n MDTM\r\n211 End")
		case "TYPE":
			reply("200 type set")
		case "SIZE":
			if content, ok := s.Get(arg); ok {
				reply("213 %d", len(content))
			} else {
				reply("550 no such file")
			}
		case "MDTM":
			if _, ok := s.Get(arg); ok {
				reply("213 20240102030405")
			} else {
				reply("550 no such file")
			}
		case "CWD":
			if s.HasDir(arg) {
				reply("250 directory changed")
			} else {
				reply("550 no such directory")
			}
		case "EPSV":
			if data, err = net.Listen("tcp", "127.0.0.1:0"); err != nil {
				reply("425 cannot open data connection")
				continue
			}
			reply("229 Entering Extended Passive Mode (|||%d|)", data.Addr().(*net.TCPAddr).Port)
		case "REST":
			offset, _ = strconv.ParseInt(arg, 10, 64)
			reply("350 restarting")
		case "RETR":
			content, ok := s.Get(arg)
			if !ok {
				_ = acceptData()
				reply("550 no such file")
				continue
			}
			dc := acceptData()
			reply("150 opening data connection")
			if offset < int64(len(content)) {
				_, _ = dc.Write(content[offset:])
			}
			offset = 0
			_ = dc.Close()
			reply("226 transfer complete")
		case "STOR", "APPE":
			dc := acceptData()
			reply("150 ok to send data")
			received, _ := io.ReadAll(dc)
			_ = dc.Close()
			s.mu.Lock()
			if strings.EqualFold(cmd, "APPE") {
				received = append(append([]byte(nil), s.files[arg]...), received...)
			}
			s.files[arg] = received
			s.mu.Unlock()
			reply("226 transfer complete")
		case "MKD":
			s.mu.Lock()
			exists := s.dirs[arg]
			s.dirs[arg] = true
			s.mu.Unlock()
			if exists {
				reply("550 directory exists")
			} else {
				reply("257 %q created", arg)
			}
		case "DELE":
			s.mu.Lock()
			_, ok := s.files[arg]
			delete(s.files, arg)
			s.mu.Unlock()
			if ok {
				reply("250 deleted")
			} else {
				reply("550 no such file")
			}
		case "QUIT":
			s.quits.Add(1)
			reply("221 bye")
			return
		default:
			reply("502 command not implemented")
		}
	}
}
