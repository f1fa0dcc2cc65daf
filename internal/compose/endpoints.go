package compose

import (
	"fmt"
	"net"
	"strings"
)

// Endpoint is a host-reachable address of a service's published port.
type Endpoint struct {
	Service string
	URL     string
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s: %s", e.Service, e.URL)
}

// Endpoints lists the published ports of every service in service name
// order. Ports that are not published on the host are skipped.
func (f *File) Endpoints() []Endpoint {
	var endpoints []Endpoint
	for _, name := range f.ServiceNames() {
		svc := f.Services[name]
		for _, p := range svc.Ports {
			if p.Published == "" {
				continue
			}
			host := p.HostIP
			if host == "" || host == "0.0.0.0" || host == "::" {
				host = "localhost"
			}
			published, _, _ := strings.Cut(p.Published, "-")
			endpoints = append(endpoints, Endpoint{
				Service: name,
				URL:     fmt.Sprintf("%s://%s", svc.scheme(), net.JoinHostPort(host, published)),
			})
		}
	}
	return endpoints
}

func (s *Service) scheme() string {
	if strings.Contains(s.Image, "mongo") {
		return "mongodb"
	}
	return "http"
}
