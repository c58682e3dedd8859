package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateFeedItemPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"source":"cninfo",
		"url":"https://www.cninfo.com.cn/announcement/123",
		"source_type":"announcement",
		"title":"迈瑞医疗2026年半年度报告",
		"summary":"公司发布半年度业绩。",
		"body_html":"<p>净利润同比增长。</p>",
		"publish_date":"2026-08-30",
		"region":"CN",
		"metadata":{"company_hints":["迈瑞医疗"]}
	}`)

	item, err := ValidateFeedItemPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if item.Source != "cninfo" {
		t.Fatalf("expected source=cninfo, got %q", item.Source)
	}
	if item.Metadata["company_hints"] == nil {
		t.Fatalf("expected metadata to survive validation")
	}
}

func TestValidateFeedItemPayload_MissingURL(t *testing.T) {
	payload := json.RawMessage(`{"source":"cninfo","title":"no url"}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for missing url")
	}
}

func TestValidateFeedItemPayload_BlankSource(t *testing.T) {
	payload := json.RawMessage(`{"source":"   ","url":"https://example.com/a"}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for blank source")
	}
}

func TestValidateFeedItemPayload_BadURL(t *testing.T) {
	payload := json.RawMessage(`{"source":"cninfo","url":"not a uri"}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for malformed url")
	}
}

func TestValidateFeedItemPayload_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{"source":"cninfo","url":"https://example.com/a","bogus":1}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}

func TestValidateFeedItemPayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"source":"cninfo","url":"https://example.com/a"} {}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateFeedItemPayload_EmptyCompanyEntry(t *testing.T) {
	payload := json.RawMessage(`{"source":"cninfo","url":"https://example.com/a","companies":["迈瑞医疗",""]}`)

	if _, err := ValidateFeedItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for empty company entry")
	}
}
