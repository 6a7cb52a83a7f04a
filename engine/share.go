package engine

import (
	"errors"
	"net/http"
	"sync"
)

// LockData identifies a kind of state a [Share] can hold. The values match
// libcurl's curl_lock_data so a lock table sized LockDataLast can serve any
// kind the share asks for.
type LockData int

const (
	LockDataNone LockData = iota
	LockDataShare
	LockDataCookie
	LockDataDNS
	LockDataSSLSession
	LockDataConnect
	LockDataPSL
	LockDataHSTS
	LockDataLast
)

// LockAccess tells the lock callback whether the share only reads
// (LockAccessShared) or also mutates (LockAccessSingle) the data.
type LockAccess int

const (
	LockAccessNone LockAccess = iota
	LockAccessShared
	LockAccessSingle
)

// LockFunc is called before the share touches data. It must block until
// the caller holds the lock for data.
type LockFunc func(data LockData, access LockAccess, userdata any)

// UnlockFunc releases what the matching LockFunc acquired.
type UnlockFunc func(data LockData, userdata any)

var (
	// ErrShareInUse is returned by Cleanup while transfers are still attached.
	ErrShareInUse = errors.New("share is in use")
	// ErrShareClosed is returned when attaching to a cleaned up share.
	ErrShareClosed = errors.New("share is closed")
	// ErrNotBuiltIn is returned for data kinds the share cannot hold.
	ErrNotBuiltIn = errors.New("share data kind not supported")
)

// ConnStats counts connections handed out by a shared connection cache.
type ConnStats struct {
	Created int
	Reused  int
}

// Share holds a connection cache usable by several [Easy] contexts at once.
// Configure it with the Set methods before attaching any transfer.
//
// Every access to shared state is bracketed by the registered LockFunc and
// UnlockFunc. Unless both are set the share falls back to one internal mutex.
type Share struct {
	lockFn      LockFunc
	unlockFn    UnlockFunc
	userdata    any
	maxConnects int
	shared      [LockDataLast]bool
	fallback    sync.Mutex

	// guarded by LockDataShare
	users  int
	closed bool

	// guarded by LockDataConnect
	transport *http.Transport
	stats     ConnStats
}

// NewShare returns an empty Share that shares nothing until SetShare is called.
func NewShare() *Share {
	return &Share{maxConnects: DefaultMaxConnects}
}

// SetShare starts sharing data between attached transfers. Only
// LockDataConnect is supported.
func (s *Share) SetShare(data LockData) error {
	if data != LockDataConnect {
		return ErrNotBuiltIn
	}
	s.shared[data] = true

	return nil
}

// Shares reports whether data is shared.
func (s *Share) Shares(data LockData) bool {
	return data >= 0 && data < LockDataLast && s.shared[data]
}

// SetLockFunc registers the lock callback.
func (s *Share) SetLockFunc(fn LockFunc) { s.lockFn = fn }

// SetUnlockFunc registers the unlock callback.
func (s *Share) SetUnlockFunc(fn UnlockFunc) { s.unlockFn = fn }

// SetUserData sets the value passed to both lock callbacks.
func (s *Share) SetUserData(userdata any) { s.userdata = userdata }

// SetMaxConnects caps the number of idle connections the shared cache keeps.
func (s *Share) SetMaxConnects(n int) {
	if n > 0 {
		s.maxConnects = n
	}
}

// Stats returns a snapshot of the connection counters.
func (s *Share) Stats() ConnStats {
	s.lock(LockDataConnect, LockAccessShared)
	defer s.unlock(LockDataConnect)

	return s.stats
}

// Cleanup closes the idle connections of the cache and marks the share
// closed. It fails with ErrShareInUse while transfers are attached.
func (s *Share) Cleanup() error {
	s.lock(LockDataShare, LockAccessSingle)
	if s.users > 0 {
		s.unlock(LockDataShare)
		return ErrShareInUse
	}
	if s.closed {
		s.unlock(LockDataShare)
		return ErrShareClosed
	}
	s.closed = true
	s.unlock(LockDataShare)

	s.lock(LockDataConnect, LockAccessSingle)
	defer s.unlock(LockDataConnect)
	if s.transport != nil {
		s.transport.CloseIdleConnections()
		s.transport = nil
	}

	return nil
}

func (s *Share) attach() error {
	s.lock(LockDataShare, LockAccessSingle)
	defer s.unlock(LockDataShare)

	if s.closed {
		return ErrShareClosed
	}
	s.users++

	return nil
}

func (s *Share) detach() {
	s.lock(LockDataShare, LockAccessSingle)
	defer s.unlock(LockDataShare)

	if s.users > 0 {
		s.users--
	}
}

// connectionCache returns the shared transport, creating it on first use.
func (s *Share) connectionCache() *http.Transport {
	s.lock(LockDataConnect, LockAccessSingle)
	defer s.unlock(LockDataConnect)

	if s.transport == nil {
		s.transport = newTransport(s.maxConnects)
	}

	return s.transport
}

func (s *Share) recordConn(reused bool) {
	s.lock(LockDataConnect, LockAccessSingle)
	defer s.unlock(LockDataConnect)

	if reused {
		s.stats.Reused++
	} else {
		s.stats.Created++
	}
}

func (s *Share) lock(data LockData, access LockAccess) {
	if s.lockFn == nil || s.unlockFn == nil {
		s.fallback.Lock()
		return
	}
	s.lockFn(data, access, s.userdata)
}

func (s *Share) unlock(data LockData) {
	if s.lockFn == nil || s.unlockFn == nil {
		s.fallback.Unlock()
		return
	}
	s.unlockFn(data, s.userdata)
}
