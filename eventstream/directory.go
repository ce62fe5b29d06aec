package eventstream

// ServiceDirectory maps event service names to the URLs events for that
// service should be POSTed to. Names may be bare ("eventgate-main") or
// datacenter-qualified by convention ("eventgate-main-dc1"). The map is
// supplied at construction, typically from deployment config, and never
// mutated afterwards.
type ServiceDirectory struct {
	serviceURLs map[string]string
}

// NewServiceDirectory copies serviceURLs into an immutable directory
func NewServiceDirectory(serviceURLs map[string]string) *ServiceDirectory {
	urls := make(map[string]string, len(serviceURLs))
	for name, serviceURL := range serviceURLs {
		urls[name] = serviceURL
	}
	return &ServiceDirectory{serviceURLs: urls}
}

// Resolve looks up the URL for an event service name
func (d *ServiceDirectory) Resolve(serviceName string) (string, bool) {
	serviceURL, ok := d.serviceURLs[serviceName]
	return serviceURL, ok
}

// ResolveForDatacenter looks up the URL for the datacenter-qualified variant
// of a service name, "<serviceName>-<datacenter>". There is no fallback to
// the bare name: a missing qualified entry means that datacenter does not
// serve the service.
func (d *ServiceDirectory) ResolveForDatacenter(serviceName, datacenter string) (string, bool) {
	return d.Resolve(serviceName + "-" + datacenter)
}

// ServiceNames returns every configured service name
func (d *ServiceDirectory) ServiceNames() []string {
	names := make([]string, 0, len(d.serviceURLs))
	for name := range d.serviceURLs {
		names = append(names, name)
	}
	return names
}
