// Package logging provides a fluent structured-logging field builder
// shared across the crawler's orchestrator, workers and HTTP substrate.
package logging

import "time"

// Fields is an ordered set of structured log attributes. Methods return
// the receiver so calls can be chained.
type Fields map[string]interface{}

// NewFields returns an empty field set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, resourceName string) Fields {
	f["resource_type"] = resourceType
	if resourceName != "" {
		f["resource_name"] = resourceName
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Domain(domain string) Fields {
	if domain != "" {
		f["domain"] = domain
	}
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus returns the fields as a plain map, matching the shape logrus
// and zap's SugaredLogger both accept as keysAndValues/Fields input.
func (f Fields) ToLogrus() map[string]interface{} {
	return map[string]interface{}(f)
}

// CrawlFields seeds a field set for an HTTP-substrate operation against
// a single origin.
func CrawlFields(operation, url string) Fields {
	return NewFields().Component("crawl").Operation(operation).URL(url)
}

// DiscoveryFields seeds a field set for a discovery-worker job.
func DiscoveryFields(source, municipalityKey string) Fields {
	return NewFields().Component("discovery").Resource("municipality", municipalityKey).Custom("source", source)
}

// ClassifierFields seeds a field set for a classifier invocation.
func ClassifierFields(procedureType string) Fields {
	f := NewFields().Component("classifier")
	if procedureType != "" {
		f.Custom("procedure_type", procedureType)
	}
	return f
}

// QueueFields seeds a field set for a queue push/pop operation.
func QueueFields(operation, queueName string) Fields {
	return NewFields().Component("queue").Operation(operation).Resource("queue", queueName)
}
