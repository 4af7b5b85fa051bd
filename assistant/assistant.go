// Package assistant talks to Gemini through google.golang.org/genai. It reads
// medicines off prescription images, matches them against the catalog and
// answers chat questions about the last prescription it read.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/metrics"
)

// Compile-time check to ensure Service implements Assistant
var _ interfaces.Assistant = (*Service)(nil)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator is the part of the genai client the assistant calls.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Catalog supplies the medicines extracted names are matched against.
type Catalog interface {
	GetMedicines() []catalog.Medicine
}

// Service implements interfaces.Assistant.
type Service struct {
	gen     Generator
	model   string
	catalog Catalog

	mu           sync.RWMutex
	prescription string // summary of the last analyzed prescription
}

// New connects to the Gemini API with apiKey.
func New(ctx context.Context, apiKey, model string, medicines Catalog) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return NewWithGenerator(client.Models, model, medicines), nil
}

// NewWithGenerator returns a service that sends its requests to gen.
func NewWithGenerator(gen Generator, model string, medicines Catalog) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{gen: gen, model: model, catalog: medicines}
}

// Prescription returns the summary chat answers are grounded on.
func (s *Service) Prescription() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prescription
}

// Chat answers message. The model may search the web, and is told which
// medicines the last analyzed prescription holds.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	start := time.Now()

	config := &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: genai.NewContentFromText(chatInstruction(s.Prescription()), genai.RoleUser),
	}
	contents := []*genai.Content{genai.NewContentFromText(message, genai.RoleUser)}

	text, err := s.generate(ctx, contents, config)
	metrics.RecordAssistant(metrics.AssistantChat, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return text, nil
}

// AnalyzePrescription reads the medicines off image and matches each name
// against the catalog. The result becomes the context of later chats.
func (s *Service) AnalyzePrescription(ctx context.Context, image []byte, mimeType string) (catalog.PrescriptionAnalysis, error) {
	start := time.Now()

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema,
	}
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(extractPrompt),
		genai.NewPartFromBytes(image, mimeType),
	}, genai.RoleUser)}

	text, err := s.generate(ctx, contents, config)
	if err == nil {
		var ex extraction
		ex, err = parseExtraction(text)
		if err == nil {
			analysis := s.match(ex)
			metrics.RecordAssistant(metrics.AssistantPrescription, time.Since(start), nil)

			s.mu.Lock()
			s.prescription = summarize(analysis)
			s.mu.Unlock()

			logging.Info("Prescription analyzed", "medicines", len(analysis.Medicines))
			return analysis, nil
		}
	}

	metrics.RecordAssistant(metrics.AssistantPrescription, time.Since(start), err)
	return catalog.PrescriptionAnalysis{}, fmt.Errorf("analyze prescription: %w", err)
}

func (s *Service) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := s.gen.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// match resolves every extracted name. Missing strengths and dosage types
// are reported as N/A.
func (s *Service) match(ex extraction) catalog.PrescriptionAnalysis {
	var medicines []catalog.Medicine
	if s.catalog != nil {
		medicines = s.catalog.GetMedicines()
	}

	analysis := catalog.PrescriptionAnalysis{Medicines: make([]catalog.PrescribedMedicine, 0, len(ex.Name))}
	for i, name := range ex.Name {
		p := catalog.PrescribedMedicine{
			Name:          catalog.NoMatchName,
			ExtractedName: name,
			FullName:      at(ex.FullName, i, name),
			Strength:      at(ex.Strength, i, notAvailable),
			DosageType:    at(ex.DosageType, i, notAvailable),
		}

		if m, score, ok := BestMatch(name, medicines, MatchThreshold); ok {
			id := m.ID
			p.Name = m.BrandName
			p.MedicineID = &id
			p.Similarity = score
		}
		analysis.Medicines = append(analysis.Medicines, p)
	}
	return analysis
}

const notAvailable = "N/A"

func at(values []string, i int, fallback string) string {
	if i < len(values) && strings.TrimSpace(values[i]) != "" {
		return values[i]
	}
	return fallback
}

// extraction is the JSON shape extractionSchema asks the model for.
type extraction struct {
	FullName   []string `json:"fullname"`
	Name       []string `json:"name"`
	DosageType []string `json:"dosage_type"`
	Strength   []string `json:"strength"`
}

func parseExtraction(text string) (extraction, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var ex extraction
	if err := json.Unmarshal([]byte(text), &ex); err != nil {
		return extraction{}, fmt.Errorf("unreadable model output: %w", err)
	}
	return ex, nil
}

func summarize(a catalog.PrescriptionAnalysis) string {
	if len(a.Medicines) == 0 {
		return ""
	}
	lines := make([]string, 0, len(a.Medicines))
	for i, m := range a.Medicines {
		name := m.Name
		if m.MedicineID == nil {
			name = m.ExtractedName + " (not in the catalog)"
		}
		lines = append(lines, fmt.Sprintf("%d. %s, %s, %s", i+1, name, m.Strength, m.DosageType))
	}
	return strings.Join(lines, "\n")
}
