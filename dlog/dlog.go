// Package dlog implements dlog client.
// The dlog servers in C++ can be found at
// https://github.com/halftwo/knotty/dlog
package dlog

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	_RECORD_TYPE_RAW   = 0
	_RECORD_VERSION    = 6
	_RECORD_HEAD_SIZE  = 18
	_RECORD_BIG_ENDIAN = 0x08
	_RECORD_TRUNCATED  = 0x80
	_RECORD_MAX_SIZE   = 4000
)

// Max length of identity, tag and locus strings
const (
	IDENTITY_MAX = 63
	TAG_MAX      = 63
	LOCUS_MAX    = 127
)

// Options for dlog
const (
	OPT_STDERR = 0x01 // Always print to stderr in addition to write to dlogd.
	OPT_PERROR = 0x02 // If failed to connect dlogd, print to stderr.
	OPT_TCP    = 0x04 // Use TCP instead of UDP to connect dlogd server.
)

const DefaultAddress = "127.0.0.1:6109"

// _Record is one dlog record. The head, in big endian, is
//
//	size uint16  (includes the head and the trailing '\0')
//	ttev byte    (truncated:1, type:3, bigendian:1, version:3)
//	locusEnd uint8
//	pid  uint32
//	msec int64
//	port uint16
type _Record struct {
	locusEnd uint8
	off      int
	buf      [_RECORD_MAX_SIZE]byte
}

var recPool = sync.Pool{
	New: func() any {
		return new(_Record)
	},
}

var thePid = uint32(os.Getpid())

func (rec *_Record) reset() {
	rec.off = _RECORD_HEAD_SIZE
	rec.locusEnd = 0
}

func (rec *_Record) putMax(s string, max int) {
	if s == "" {
		s = "-"
	} else if len(s) > max {
		s = s[:max]
	}
	rec.WriteString(s)
}

func (rec *_Record) setIdentityTagLocus(identity, tag, locus string) {
	rec.putMax(identity, IDENTITY_MAX)
	rec.WriteByte(' ')
	rec.putMax(tag, TAG_MAX)
	rec.WriteByte(' ')
	rec.putMax(locus, LOCUS_MAX)
	rec.locusEnd = uint8(rec.off - _RECORD_HEAD_SIZE)
	rec.WriteByte(' ')
}

// Write appends what fits and counts the rest, so truncated() can tell.
func (rec *_Record) Write(p []byte) (int, error) {
	if rec.off < len(rec.buf) {
		copy(rec.buf[rec.off:], p)
	}
	rec.off += len(p)
	return len(p), nil
}

func (rec *_Record) WriteString(s string) (int, error) {
	if rec.off < len(rec.buf) {
		copy(rec.buf[rec.off:], s)
	}
	rec.off += len(s)
	return len(s), nil
}

func (rec *_Record) WriteByte(b byte) error {
	if rec.off < len(rec.buf) {
		rec.buf[rec.off] = b
	}
	rec.off++
	return nil
}

func (rec *_Record) truncated() bool {
	return rec.off >= len(rec.buf)
}

// finish fills the head and returns the whole record.
func (rec *_Record) finish(now time.Time) []byte {
	ttev := byte(_RECORD_TYPE_RAW<<4 | _RECORD_BIG_ENDIAN | _RECORD_VERSION)
	size := rec.off
	if rec.truncated() {
		ttev |= _RECORD_TRUNCATED
		size = len(rec.buf) - 1
	}
	// trim trailing '\r' and '\n'
	for size > _RECORD_HEAD_SIZE && (rec.buf[size-1] == '\r' || rec.buf[size-1] == '\n') {
		size--
	}
	rec.buf[size] = 0
	size++

	msec := now.UnixMilli()
	b := rec.buf[:]
	b[0], b[1] = byte(size>>8), byte(size)
	b[2] = ttev
	b[3] = rec.locusEnd
	b[4], b[5], b[6], b[7] = byte(thePid>>24), byte(thePid>>16), byte(thePid>>8), byte(thePid)
	for i := 0; i < 8; i++ {
		b[8+i] = byte(msec >> (56 - 8*i))
	}
	b[16], b[17] = 0, 0
	return rec.buf[:size]
}

// body returns the text after the head, without the trailing '\0'.
func body(record []byte) []byte {
	return record[_RECORD_HEAD_SIZE : len(record)-1]
}

type _ConnBox struct {
	con net.Conn
}

type Dlogger struct {
	option       uint32
	identity     string
	addr         atomic.Value // string
	con          atomic.Value // _ConnBox
	lastFailTime time.Time
	mutex        sync.Mutex
}

var theLogger = NewDlogger("")

// NewDlogger makes a logger. An empty identity means the program name.
func NewDlogger(identity string) *Dlogger {
	id := identity
	if id == "" {
		id = os.Args[0]
		if i := strings.LastIndexByte(id, os.PathSeparator); i >= 0 {
			id = id[i+1:]
		}
	}

	lg := &Dlogger{identity: id}
	lg.addr.Store(DefaultAddress)
	lg.con.Store(_ConnBox{})
	return lg
}

func (lg *Dlogger) SetOption(option int) {
	opt := uint32(option)
	old := atomic.SwapUint32(&lg.option, opt)
	if (old^opt)&OPT_TCP != 0 {
		lg.reset()
	}
}

// SetAddress points the logger to another dlogd.
func (lg *Dlogger) SetAddress(addr string) {
	if addr == "" {
		addr = DefaultAddress
	}
	lg.addr.Store(addr)
	lg.reset()
}

func (lg *Dlogger) reset() {
	if c := lg.loadConn(); c != nil {
		lg.shut(c)
	}
}

func getLocus(skip int) (locus string) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if ok {
		if i := strings.LastIndexByte(file, '/'); i >= 0 {
			file = file[i+1:]
		}
		locus = file + ":" + strconv.Itoa(line)
	}
	return
}

// TimeString formats t the way dlogd does: "yymmddwHHMMSS+zone",
// where w is the weekday letter and a zero zone minute part is dropped.
func TimeString(t time.Time) string {
	var buf [24]byte
	b := t.AppendFormat(buf[:0], "060102+150405-0700")
	b[6] = "umtwrfs"[t.Weekday()]

	n := len(b)
	if b[n-2] == '0' && b[n-1] == '0' {
		b = b[:n-2]
	}
	return string(b)
}

// Log sends a dlog to dlogd.
// identity is from the logger's default.
// locus is from runtime.Caller()
func (lg *Dlogger) Log(tag string, format string, a ...any) {
	skip := 1
	if lg == theLogger {
		skip = 2
	}
	lg.XLog(lg.identity, tag, getLocus(skip), format, a...)
}

// XLog sends a dlog to dlogd.
// identity and locus are also specified in the arguments.
func (lg *Dlogger) XLog(identity string, tag string, locus string, format string, a ...any) {
	rec := recPool.Get().(*_Record)
	defer recPool.Put(rec)

	rec.reset()
	rec.setIdentityTagLocus(identity, tag, locus)
	fmt.Fprintf(rec, format, a...)
	now := time.Now()
	buf := rec.finish(now)

	option := atomic.LoadUint32(&lg.option)
	printed := false
	if option&OPT_STDERR != 0 {
		printed = true
		printStderr(now, buf)
	}

	con := lg.conn()
	if con == nil {
		if option&OPT_PERROR != 0 && !printed {
			printStderr(now, buf)
		}
		return
	}

	if _, err := con.Write(buf); err != nil {
		lg.shut(con)
		if option&OPT_PERROR != 0 && !printed {
			printStderr(now, buf)
		}
	}
}

func printStderr(now time.Time, record []byte) {
	fmt.Fprintf(os.Stderr, "%s :: %d+%d %s\n", TimeString(now), thePid, 0, body(record))
}

func (lg *Dlogger) loadConn() net.Conn {
	return lg.con.Load().(_ConnBox).con
}

func (lg *Dlogger) conn() net.Conn {
	if c := lg.loadConn(); c != nil {
		return c
	}
	return lg.dial()
}

func (lg *Dlogger) dial() net.Conn {
	lg.mutex.Lock()
	defer lg.mutex.Unlock()

	if c := lg.loadConn(); c != nil {
		return c
	}

	if time.Since(lg.lastFailTime) < time.Second {
		return nil
	}

	network := "udp"
	if atomic.LoadUint32(&lg.option)&OPT_TCP != 0 {
		network = "tcp"
	}
	con, err := net.DialTimeout(network, lg.addr.Load().(string), time.Second)
	if err != nil {
		lg.lastFailTime = time.Now()
		return nil
	}
	lg.con.Store(_ConnBox{con})
	return con
}

func (lg *Dlogger) shut(con net.Conn) {
	con.Close()

	lg.mutex.Lock()
	defer lg.mutex.Unlock()

	if lg.loadConn() == con {
		lg.con.Store(_ConnBox{})
	}
	lg.lastFailTime = time.Time{}
}

func SetOption(option int) {
	theLogger.SetOption(option)
}

func SetAddress(addr string) {
	theLogger.SetAddress(addr)
}

func Log(tag string, format string, a ...any) {
	theLogger.Log(tag, format, a...)
}

func XLog(identity string, tag string, locus string, format string, a ...any) {
	theLogger.XLog(identity, tag, locus, format, a...)
}
