package toolmesh

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Registry is the immutable mapping from destination name to base URL,
// loaded once at startup. Every Client call resolves through it; unknown
// names fail fast without any network I/O.
type Registry struct {
	servers map[string]string
	names   []string
}

type registryDocument struct {
	Servers map[string]registryServer `json:"servers"`
}

type registryServer struct {
	BaseURL string `json:"baseUrl"`
}

// LoadRegistry reads the registry document from a JSON file of the form
//
//	{"servers": {"<name>": {"baseUrl": "http://host:port"}}}
//
// Unknown extra fields are ignored. A missing or malformed file, or a
// server entry without baseUrl, returns a Config error naming the path.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeConfig,
			Message: fmt.Sprintf("cannot open registry file %q", path),
			Cause:   err,
		}
	}
	defer f.Close()

	registry, err := LoadRegistryFrom(f)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Message = fmt.Sprintf("%s in registry file %q", e.Message, path)
		}
		return nil, err
	}
	return registry, nil
}

// LoadRegistryFrom parses the registry document from an arbitrary reader.
func LoadRegistryFrom(r io.Reader) (*Registry, error) {
	var doc registryDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &Error{
			Type:    ErrorTypeConfig,
			Message: "malformed registry document",
			Cause:   err,
		}
	}
	if doc.Servers == nil {
		return nil, &Error{
			Type:    ErrorTypeConfig,
			Message: `registry document has no "servers" object`,
		}
	}

	servers := make(map[string]string, len(doc.Servers))
	for name, entry := range doc.Servers {
		if entry.BaseURL == "" {
			return nil, &Error{
				Type:    ErrorTypeConfig,
				Message: fmt.Sprintf("destination %q has no baseUrl", name),
			}
		}
		servers[name] = strings.TrimRight(entry.BaseURL, "/")
	}
	return newRegistry(servers), nil
}

// NewRegistry builds a registry from an in-memory name → base URL mapping.
// Mostly useful in tests and embedded hosts.
func NewRegistry(servers map[string]string) *Registry {
	copied := make(map[string]string, len(servers))
	for name, baseURL := range servers {
		copied[name] = strings.TrimRight(baseURL, "/")
	}
	return newRegistry(copied)
}

func newRegistry(servers map[string]string) *Registry {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{servers: servers, names: names}
}

// Resolve returns the base URL for a destination name.
func (r *Registry) Resolve(name string) (string, error) {
	baseURL, ok := r.servers[name]
	if !ok {
		return "", &Error{
			Type:        ErrorTypeDestinationNotFound,
			Message:     fmt.Sprintf("unknown destination %q", name),
			Destination: name,
		}
	}
	return baseURL, nil
}

// Names returns the sorted destination names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered destinations.
func (r *Registry) Len() int {
	return len(r.servers)
}
