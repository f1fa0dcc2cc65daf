// Package compose reads the subset of a docker-compose file the bootstrapper
// relies on: services, their published ports and networks, and the
// top-level network declarations.
package compose

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoServices          = errors.New("compose file declares no services")
	ErrNetworkNotExternal  = errors.New("network is not declared external")
	ErrServiceNotOnNetwork = errors.New("service is not attached to network")
	ErrMissingDependency   = errors.New("service does not depend on data store")
)

// File is a parsed compose file.
type File struct {
	Services map[string]*Service `yaml:"services"`
	Networks map[string]*Network `yaml:"networks"`
}

// Service is a single compose service.
type Service struct {
	Image     string    `yaml:"image"`
	Build     yaml.Node `yaml:"build"`
	Ports     []Port    `yaml:"ports"`
	Volumes   []string  `yaml:"volumes"`
	DependsOn nameList  `yaml:"depends_on"`
	Networks  nameList  `yaml:"networks"`

	Environment envMap `yaml:"environment"`
}

// Builds reports whether the service is built from a local image definition.
func (s *Service) Builds() bool {
	return !s.Build.IsZero()
}

// Network is a top-level network declaration.
type Network struct {
	Name     string       `yaml:"name"`
	External externalFlag `yaml:"external"`
}

// Port is a published port mapping. Published is empty when the container
// port is not bound on the host.
type Port struct {
	HostIP    string
	Published string
	Target    string
	Protocol  string
}

// Load reads and parses the compose file at path, expanding ${VAR} and
// ${VAR:-default} references from vars.
func Load(path string, vars map[string]string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}
	return Parse(data, vars)
}

// escapedDollar stands in for compose's $$ escape while variables expand.
const escapedDollar = "\x00"

// Parse parses compose file content.
func Parse(data []byte, vars map[string]string) (*File, error) {
	escaped := strings.ReplaceAll(string(data), "$$", escapedDollar)
	expanded := os.Expand(escaped, func(ref string) string {
		return lookupVar(ref, vars)
	})
	expanded = strings.ReplaceAll(expanded, escapedDollar, "$")

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, ErrNoServices
	}
	return &f, nil
}

// Validate checks that the stack is wired to the external network the
// bootstrapper provisions and that app depends on store.
func (f *File) Validate(network, app, store string) error {
	var errs []error

	key, decl := f.network(network)
	if decl == nil || !bool(decl.External) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrNetworkNotExternal, network))
	}

	for _, name := range f.ServiceNames() {
		if key == "" || !slices.Contains(f.Services[name].Networks, key) {
			errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrServiceNotOnNetwork, name, network))
		}
	}

	if svc, ok := f.Services[app]; ok {
		if _, ok := f.Services[store]; ok && !slices.Contains(svc.DependsOn, store) {
			errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrMissingDependency, app, store))
		}
	}

	return errors.Join(errs...)
}

// ServiceNames returns the declared service names in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// network finds the declaration whose key or explicit name matches.
func (f *File) network(name string) (string, *Network) {
	if n, ok := f.Networks[name]; ok {
		if n == nil {
			n = &Network{}
		}
		return name, n
	}
	for key, n := range f.Networks {
		if n != nil && n.Name == name {
			return key, n
		}
	}
	return "", nil
}

// UnmarshalYAML accepts both the short "[ip:]published:target[/proto]"
// string form and the long mapping form.
func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return p.parseShort(node.Value)
	case yaml.MappingNode:
		var long struct {
			HostIP    string `yaml:"host_ip"`
			Published string `yaml:"published"`
			Target    string `yaml:"target"`
			Protocol  string `yaml:"protocol"`
		}
		if err := node.Decode(&long); err != nil {
			return err
		}
		*p = Port{HostIP: long.HostIP, Published: long.Published, Target: long.Target, Protocol: long.Protocol}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported port definition", node.Line)
	}
}

func (p *Port) parseShort(s string) error {
	spec, proto, _ := strings.Cut(s, "/")
	parts := strings.Split(spec, ":")

	var port Port
	switch len(parts) {
	case 1:
		port.Target = parts[0]
	case 2:
		port.Published, port.Target = parts[0], parts[1]
	case 3:
		port.HostIP, port.Published, port.Target = parts[0], parts[1], parts[2]
	default:
		return fmt.Errorf("invalid port mapping %q", s)
	}

	for _, v := range []string{port.Published, port.Target} {
		if v == "" {
			continue
		}
		// ranges like 8000-8010 are allowed, each bound must be numeric
		for bound := range strings.SplitSeq(v, "-") {
			if _, err := strconv.Atoi(bound); err != nil {
				return fmt.Errorf("invalid port mapping %q", s)
			}
		}
	}

	port.Protocol = proto
	*p = port
	return nil
}

// nameList decodes compose fields that may be either a list of names or a
// mapping keyed by name (depends_on, networks).
type nameList []string

func (l *nameList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = nameList{node.Value}
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*l = names
	case yaml.MappingNode:
		names := make([]string, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			names = append(names, node.Content[i].Value)
		}
		*l = names
	default:
		return fmt.Errorf("line %d: expected a list or mapping", node.Line)
	}
	return nil
}

// envMap decodes `environment` in either the KEY=value list form or the
// mapping form. A key without a value maps to "".
type envMap map[string]string

func (m *envMap) UnmarshalYAML(node *yaml.Node) error {
	env := envMap{}
	switch node.Kind {
	case yaml.SequenceNode:
		var entries []string
		if err := node.Decode(&entries); err != nil {
			return err
		}
		for _, entry := range entries {
			k, v, _ := strings.Cut(entry, "=")
			env[k] = v
		}
	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Tag == "!!null" {
				env[k.Value] = ""
				continue
			}
			env[k.Value] = v.Value
		}
	default:
		return fmt.Errorf("line %d: expected a list or mapping", node.Line)
	}
	*m = env
	return nil
}

// externalFlag accepts `external: true` and the legacy `external: {name: x}`.
type externalFlag bool

func (e *externalFlag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		*e = true
		return nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return err
	}
	*e = externalFlag(b)
	return nil
}

func lookupVar(ref string, vars map[string]string) string {
	name, def, hasDefault := strings.Cut(ref, ":-")
	if v, ok := vars[name]; ok && (v != "" || !hasDefault) {
		return v
	}
	if v, ok := os.LookupEnv(name); ok && (v != "" || !hasDefault) {
		return v
	}
	return def
}
