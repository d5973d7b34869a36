package exporter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

// resultPayload is the wire form of a result carried by a client between
// the results page and the download request.
type resultPayload struct {
	Type      domain.AnalysisType     `json:"t"`
	Manager   []domain.FrequencyEntry `json:"m"`
	Secondary []domain.FrequencyEntry `json:"s"`
}

// EncodeResult serializes result into URL-safe text (unpadded base64url of
// JSON). Only the analysis type and both tables are carried; everything
// else is derived again on decode.
func EncodeResult(result *domain.AnalysisResult) (string, error) {
	if result == nil {
		return "", apierrors.NewExportError("no analysis result to encode", nil)
	}
	data, err := json.Marshal(resultPayload{
		Type:      result.Type,
		Manager:   result.Manager.Entries,
		Secondary: result.Secondary.Entries,
	})
	if err != nil {
		return "", apierrors.NewInternalExportError("failed to encode result", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeResult restores a result produced by EncodeResult. The payload comes
// from the client, so the analysis type must be known, labels unique and
// counts positive. Entries are re-sorted by count, keeping the payload order
// among ties. The output filename and sheet names are derived from the
// type and never taken from the payload.
func DecodeResult(payload string) (*domain.AnalysisResult, error) {
	if payload == "" {
		return nil, apierrors.NewMissingInputError("no result payload supplied")
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, apierrors.NewExportError("result payload is not valid base64url", err)
	}

	var p resultPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apierrors.NewExportError("result payload is not valid JSON", err)
	}
	if !p.Type.Valid() {
		return nil, apierrors.NewExportError(fmt.Sprintf("result payload has unsupported analysis type %q", p.Type), nil)
	}

	manager, err := decodeEntries(domain.ManagerColumn, p.Manager)
	if err != nil {
		return nil, err
	}
	secondary, err := decodeEntries(p.Type.Column(), p.Secondary)
	if err != nil {
		return nil, err
	}

	return domain.NewAnalysisResult(p.Type, manager, secondary), nil
}

func decodeEntries(column string, entries []domain.FrequencyEntry) (domain.FrequencyTable, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]domain.FrequencyEntry, 0, len(entries))
	for _, e := range entries {
		if e.Count <= 0 {
			return domain.FrequencyTable{}, apierrors.NewExportError(
				fmt.Sprintf("result payload has non-positive count for %q in %s", e.Label, column), nil)
		}
		if seen[e.Label] {
			return domain.FrequencyTable{}, apierrors.NewExportError(
				fmt.Sprintf("result payload repeats label %q in %s", e.Label, column), nil)
		}
		seen[e.Label] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return domain.FrequencyTable{Column: column, Entries: out}, nil
}
