package catalog

// NoMatchName stands in for a prescribed medicine no catalog entry resembles.
const NoMatchName = "Sorry can't detect the correct name"

// PrescribedMedicine is one medicine read from a prescription image.
type PrescribedMedicine struct {
	Name          string  `json:"name"` // catalog brand name, or NoMatchName
	ExtractedName string  `json:"extracted_name"`
	FullName      string  `json:"full_name"`
	Strength      string  `json:"strength"`
	DosageType    string  `json:"dosage_type"`
	MedicineID    *int    `json:"medicine_id"`
	Similarity    float64 `json:"similarity"`
}

// PrescriptionAnalysis lists the medicines found on a prescription, in reading order.
type PrescriptionAnalysis struct {
	Medicines []PrescribedMedicine `json:"medicines"`
}

// ChatMessage is the body of a chat request.
type ChatMessage struct {
	Message string `json:"message"`
}

// ChatReply is the assistant's answer to a ChatMessage.
type ChatReply struct {
	Response string `json:"response"`
}
