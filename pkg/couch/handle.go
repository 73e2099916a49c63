package couch

import "strconv"

// Handle identifies a database on a server. Setters keep the cached URL in
// sync with host, port and name; a Handle must not be mutated concurrently.
type Handle struct {
	host      string
	port      int
	name      string
	cachedURL string
}

// DeriveURL returns http://{host}:{port}/{name}.
func DeriveURL(host string, port int, name string) string {
	return "http://" + host + ":" + strconv.Itoa(port) + "/" + name
}

// NewHandle returns a handle with its URL already derived.
func NewHandle(name, host string, port int) *Handle {
	h := &Handle{host: host, port: port, name: name}
	h.recompute()
	return h
}

// Host returns the server host.
func (h *Handle) Host() string { return h.host }

// Port returns the server port.
func (h *Handle) Port() int { return h.port }

// Name returns the database name.
func (h *Handle) Name() string { return h.name }

// SetHost changes the host and recomputes the URL.
func (h *Handle) SetHost(host string) {
	h.host = host
	h.recompute()
}

// SetPort changes the port and recomputes the URL.
func (h *Handle) SetPort(port int) {
	h.port = port
	h.recompute()
}

// SetName changes the database name and recomputes the URL.
func (h *Handle) SetName(name string) {
	h.name = name
	h.recompute()
}

// URL returns the cached database URL, deriving and storing it on first use.
func (h *Handle) URL() string {
	if h.cachedURL == "" {
		h.recompute()
	}
	return h.cachedURL
}

func (h *Handle) String() string {
	return h.URL()
}

func (h *Handle) recompute() {
	h.cachedURL = DeriveURL(h.host, h.port, h.name)
}
