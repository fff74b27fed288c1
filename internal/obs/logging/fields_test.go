package logging

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	fields := NewFields()
	if len(fields) != 0 {
		t.Errorf("NewFields() should be empty, got %d fields", len(fields))
	}
}

func TestFields_Component(t *testing.T) {
	fields := NewFields().Component("crawl")
	if fields["component"] != "crawl" {
		t.Errorf("Component() = %v, want crawl", fields["component"])
	}
}

func TestFields_ResourceWithoutName(t *testing.T) {
	fields := NewFields().Resource("municipality", "")
	if _, exists := fields["resource_name"]; exists {
		t.Error("Resource() should not set resource_name when empty")
	}
}

func TestFields_Duration(t *testing.T) {
	fields := NewFields().Duration(150 * time.Millisecond)
	if fields["duration_ms"] != int64(150) {
		t.Errorf("Duration() = %v, want 150", fields["duration_ms"])
	}
}

func TestFields_ErrorNil(t *testing.T) {
	fields := NewFields().Error(nil)
	if _, exists := fields["error"]; exists {
		t.Error("Error(nil) should not set error field")
	}
}

func TestFields_ErrorSet(t *testing.T) {
	fields := NewFields().Error(errors.New("boom"))
	if fields["error"] != "boom" {
		t.Errorf("Error() = %v, want boom", fields["error"])
	}
}

func TestFields_ChainedCalls(t *testing.T) {
	fields := NewFields().
		Component("crawl").
		Operation("fetch").
		Resource("url", "https://example.de").
		Duration(100 * time.Millisecond).
		Count(3)

	expected := map[string]interface{}{
		"component":     "crawl",
		"operation":     "fetch",
		"resource_type": "url",
		"resource_name": "https://example.de",
		"duration_ms":   int64(100),
		"count":         3,
	}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("%s = %v, want %v", k, fields[k], v)
		}
	}
}

func TestFields_ToLogrus(t *testing.T) {
	fields := NewFields().Component("crawl").Operation("fetch")
	plain := fields.ToLogrus()
	if plain["component"] != "crawl" || plain["operation"] != "fetch" {
		t.Errorf("ToLogrus() = %v", plain)
	}
}

func TestCrawlFields(t *testing.T) {
	fields := CrawlFields("fetch", "https://example.de")
	if fields["component"] != "crawl" || fields["operation"] != "fetch" || fields["url"] != "https://example.de" {
		t.Errorf("CrawlFields() = %v", fields)
	}
}

func TestDiscoveryFields(t *testing.T) {
	fields := DiscoveryFields("ris", "bb-12345")
	expected := map[string]interface{}{
		"component":     "discovery",
		"resource_type": "municipality",
		"resource_name": "bb-12345",
		"source":        "ris",
	}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("%s = %v, want %v", k, fields[k], v)
		}
	}
}

func TestQueueFields(t *testing.T) {
	fields := QueueFields("push", "crawl")
	expected := map[string]interface{}{
		"component":     "queue",
		"operation":     "push",
		"resource_type": "queue",
		"resource_name": "crawl",
	}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("%s = %v, want %v", k, fields[k], v)
		}
	}
}
