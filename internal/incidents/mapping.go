package incidents

import (
	"encoding/json"
	"fmt"

	"github.com/assuralabs/assura/internal/pii"
	"github.com/assuralabs/assura/pkg/crypto"
	"github.com/assuralabs/assura/pkg/query"
	"github.com/assuralabs/assura/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "incidents", "i").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("status", "Status").
	Project("story", "Story").
	Project("extracted_data", "ExtractedData").
	Project("pii_mapping", "PIIMapping").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// incidentRow holds one incidents row before field decryption.
type incidentRow struct {
	Incident
	rawStory     string
	rawExtracted []byte
	rawMapping   string
}

func scanIncident(s repository.Scanner) (incidentRow, error) {
	var row incidentRow
	err := s.Scan(
		&row.ID,
		&row.OwnerID,
		&row.Status,
		&row.rawStory,
		&row.rawExtracted,
		&row.rawMapping,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}

func scanEvent(s repository.Scanner) (ClaimEvent, error) {
	var (
		e       ClaimEvent
		details []byte
	)
	if err := s.Scan(&e.ID, &e.IncidentID, &e.EventType, &details, &e.CreatedAt); err != nil {
		return e, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return e, fmt.Errorf("decode event details: %w", err)
		}
	}
	return e, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.IncidentID,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.StorageKey,
		&d.UploadedAt,
	)
	return d, err
}

// encodeExtraction marshals an extraction result for storage, encrypting the
// values of PII-named fields. Field names identify sensitive values, so the
// transformation is reversible without inspecting ciphertext.
func encodeExtraction(cipher crypto.Cipher, result any) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode extraction: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("encode extraction: %w", err)
	}

	for field := range pii.IdentifyFields(record) {
		value, _ := record[field].(string)
		encrypted, err := cipher.Encrypt(value)
		if err != nil {
			return nil, fmt.Errorf("encrypt field %s: %w", field, err)
		}
		record[field] = encrypted
	}

	return json.Marshal(record)
}

// decodeExtraction reverses encodeExtraction into the target type.
func decodeExtraction(cipher crypto.Cipher, data []byte, target any) error {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("decode extraction: %w", err)
	}

	for field, value := range record {
		if !pii.SensitiveField(field) {
			continue
		}
		encrypted, ok := value.(string)
		if !ok || encrypted == "" {
			continue
		}
		decrypted, err := cipher.Decrypt(encrypted)
		if err != nil {
			return fmt.Errorf("decrypt field %s: %w", field, err)
		}
		record[field] = decrypted
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("decode extraction: %w", err)
	}
	return json.Unmarshal(raw, target)
}

func encodeDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		details = map[string]any{}
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode event details: %w", err)
	}
	return encoded, nil
}

// encodeMapping encrypts the serialized PII mapping as a single value.
func encodeMapping(cipher crypto.Cipher, mapping pii.Mapping) (string, error) {
	if mapping == nil {
		mapping = pii.Mapping{}
	}
	raw, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("encode pii mapping: %w", err)
	}
	return cipher.Encrypt(string(raw))
}

func decodeMapping(cipher crypto.Cipher, data string) (pii.Mapping, error) {
	if data == "" {
		return pii.Mapping{}, nil
	}

	raw, err := cipher.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("decrypt pii mapping: %w", err)
	}

	var mapping pii.Mapping
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, fmt.Errorf("decode pii mapping: %w", err)
	}
	return mapping, nil
}
