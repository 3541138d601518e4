package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agencia-digital/app-leads/internal/models"
)

// PayloadKind is the detected shape of a webhook payload
type PayloadKind string

const (
	PayloadMeta    PayloadKind = "meta"
	PayloadGoogle  PayloadKind = "google"
	PayloadGeneric PayloadKind = "generic"
)

// NormalizedChange is the outcome of mapping one change of a payload.
// Exactly one of Draft and Err is set.
type NormalizedChange struct {
	Index int
	Draft *models.LeadInput
	Err   error
}

// WebhookNormalizer turns ad platform webhook payloads into lead drafts.
// It holds no state; every mapping is a pure function of the payload.
type WebhookNormalizer struct{}

func NewWebhookNormalizer() *WebhookNormalizer {
	return &WebhookNormalizer{}
}

// DecodePayload parses a webhook body as a JSON object. Numbers are kept as
// json.Number so provider ids survive unchanged.
func DecodePayload(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", models.ErrUnrecognizedPayload)
	}
	return payload, nil
}

func kindFromHint(hint string) (PayloadKind, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "google", "google_ads":
		return PayloadGoogle, true
	case "meta", "facebook", "meta_ads":
		return PayloadMeta, true
	}
	return "", false
}

// Classify picks the payload kind. An explicit hint (header or the payload
// "source" field) wins over structural probing.
func (n *WebhookNormalizer) Classify(hint string, payload map[string]interface{}) PayloadKind {
	if kind, ok := kindFromHint(hint); ok {
		return kind
	}
	if kind, ok := kindFromHint(stringField(payload, "source")); ok {
		return kind
	}

	if stringField(payload, "object") == "page" {
		return PayloadMeta
	}
	if _, ok := payload["entry"].([]interface{}); ok {
		return PayloadMeta
	}

	if _, ok := payload["google_lead"].(map[string]interface{}); ok {
		return PayloadGoogle
	}
	if _, ok := payload["google_key"]; ok {
		return PayloadGoogle
	}
	if _, hasID := payload["lead_id"]; hasID {
		if _, ok := payload["user_column_data"].([]interface{}); ok {
			return PayloadGoogle
		}
	}

	return PayloadGeneric
}

// Normalize decodes and maps a webhook body. A body that is not a JSON
// object returns ErrUnrecognizedPayload together with the generic mapping
// of an empty payload, so callers can still record the signal.
func (n *WebhookNormalizer) Normalize(hint string, raw []byte) (PayloadKind, []NormalizedChange, error) {
	payload, err := DecodePayload(raw)
	if err != nil {
		return PayloadGeneric, []NormalizedChange{{Draft: MapGenericLead(nil)}}, err
	}

	kind := n.Classify(hint, payload)
	switch kind {
	case PayloadMeta:
		return kind, MapMetaLeads(payload), nil
	case PayloadGoogle:
		return kind, []NormalizedChange{{Draft: MapGoogleLead(payload)}}, nil
	default:
		return kind, []NormalizedChange{{Draft: MapGenericLead(payload)}}, nil
	}
}

// MapMetaLeads maps every leadgen change of a page webhook. A malformed
// change yields an error entry without affecting its siblings.
func MapMetaLeads(payload map[string]interface{}) []NormalizedChange {
	var results []NormalizedChange
	index := 0

	entries, _ := payload["entry"].([]interface{})
	for entryIdx, rawEntry := range entries {
		entry, ok := rawEntry.(map[string]interface{})
		if !ok {
			results = append(results, NormalizedChange{
				Index: index,
				Err:   fmt.Errorf("%w: entry %d is not an object", models.ErrValidation, entryIdx),
			})
			index++
			continue
		}

		changes, _ := entry["changes"].([]interface{})
		for changeIdx, rawChange := range changes {
			change, ok := rawChange.(map[string]interface{})
			if !ok {
				results = append(results, NormalizedChange{
					Index: index,
					Err:   fmt.Errorf("%w: entry %d change %d is not an object", models.ErrValidation, entryIdx, changeIdx),
				})
				index++
				continue
			}
			if stringField(change, "field") != "leadgen" {
				continue
			}

			value, ok := change["value"].(map[string]interface{})
			if !ok {
				results = append(results, NormalizedChange{
					Index: index,
					Err:   fmt.Errorf("%w: entry %d change %d has no value object", models.ErrValidation, entryIdx, changeIdx),
				})
				index++
				continue
			}

			results = append(results, NormalizedChange{Index: index, Draft: mapMetaChange(value)})
			index++
		}
	}
	return results
}

func mapMetaChange(value map[string]interface{}) *models.LeadInput {
	fields := metaFieldData(value)
	formID := stringField(value, "form_id")

	adsetID := stringField(value, "adset_id")
	if adsetID == "" {
		adsetID = stringField(value, "adgroup_id")
	}

	return &models.LeadInput{
		Name:    fields["full_name"],
		Email:   fields["email"],
		Phone:   fields["phone_number"],
		Message: "Lead from Meta form " + formID,
		Source:  models.LeadSourceMetaAds,
		Campaign: &models.Campaign{
			Platform:     "meta",
			CampaignID:   stringField(value, "campaign_id"),
			CampaignName: stringField(value, "campaign_name"),
			AdSetID:      adsetID,
			AdSetName:    stringField(value, "adset_name"),
			AdID:         stringField(value, "ad_id"),
			AdName:       stringField(value, "ad_name"),
		},
		ExternalID: stringField(value, "leadgen_id"),
		FormID:     formID,
	}
}

// metaFieldData flattens field_data[] into name -> first value
func metaFieldData(value map[string]interface{}) map[string]string {
	out := map[string]string{}
	items, _ := value["field_data"].([]interface{})
	for _, rawItem := range items {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		name := stringField(item, "name")
		if name == "" {
			continue
		}
		values, _ := item["values"].([]interface{})
		if len(values) == 0 {
			continue
		}
		if _, exists := out[name]; !exists {
			out[name] = toString(values[0])
		}
	}
	return out
}

// MapGoogleLead maps a Google Ads lead form payload, unwrapping google_lead
// when present and reading user_column_data columns.
func MapGoogleLead(payload map[string]interface{}) *models.LeadInput {
	lead := payload
	if inner, ok := payload["google_lead"].(map[string]interface{}); ok {
		lead = inner
	}

	columns := googleColumns(lead)

	name := firstNonEmpty(stringField(lead, "name"), stringField(lead, "full_name"), columns["FULL_NAME"])
	if name == "" {
		name = strings.TrimSpace(columns["FIRST_NAME"] + " " + columns["LAST_NAME"])
	}

	campaignName := firstNonEmpty(stringField(lead, "campaign_name"), stringField(lead, "campaign"))
	message := stringField(lead, "message")
	if message == "" {
		message = strings.TrimSpace("Lead from Google Ads campaign " + campaignName)
	}

	return &models.LeadInput{
		Name:    name,
		Email:   firstNonEmpty(stringField(lead, "email"), columns["EMAIL"]),
		Phone:   firstNonEmpty(stringField(lead, "phone"), stringField(lead, "phone_number"), columns["PHONE_NUMBER"]),
		Company: firstNonEmpty(stringField(lead, "company"), columns["COMPANY_NAME"]),
		Message: message,
		Source:  models.LeadSourceGoogleAds,
		Campaign: &models.Campaign{
			Platform:     "google",
			CampaignID:   stringField(lead, "campaign_id"),
			CampaignName: campaignName,
			AdSetID:      stringField(lead, "adgroup_id"),
			AdID:         stringField(lead, "creative_id"),
		},
		ExternalID: stringField(lead, "lead_id"),
		FormID:     stringField(lead, "form_id"),
	}
}

// googleColumns flattens user_column_data[] into column_id -> string_value
func googleColumns(lead map[string]interface{}) map[string]string {
	out := map[string]string{}
	items, _ := lead["user_column_data"].([]interface{})
	for _, rawItem := range items {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		id := stringField(item, "column_id")
		if id == "" {
			continue
		}
		if _, exists := out[id]; !exists {
			out[id] = stringField(item, "string_value")
		}
	}
	return out
}

// MapGenericLead maps any other JSON object. A nil payload yields an empty
// draft with source other.
func MapGenericLead(payload map[string]interface{}) *models.LeadInput {
	draft := &models.LeadInput{
		Name:    firstNonEmpty(stringField(payload, "name"), stringField(payload, "full_name")),
		Email:   stringField(payload, "email"),
		Phone:   firstNonEmpty(stringField(payload, "phone"), stringField(payload, "phone_number")),
		Company: stringField(payload, "company"),
		Subject: stringField(payload, "subject"),
		Message: firstNonEmpty(stringField(payload, "message"), stringField(payload, "notes")),
		Service: stringField(payload, "service"),
		Budget:  stringField(payload, "budget"),
		Source:  models.LeadSourceOther,
	}

	platform := stringField(payload, "platform")
	campaignName := stringField(payload, "campaignName")
	if nested, ok := payload["campaign"].(map[string]interface{}); ok {
		platform = firstNonEmpty(platform, stringField(nested, "platform"))
		campaignName = firstNonEmpty(campaignName, stringField(nested, "campaignName"))
	}
	if platform != "" || campaignName != "" {
		draft.Campaign = &models.Campaign{Platform: platform, CampaignName: campaignName}
	}

	return draft
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	return toString(m[key])
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
