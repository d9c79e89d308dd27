package assembly

import "github.com/nexus-reussite/backend/core/content"

// Document archetypes.
const (
	DocFicheRevision          = "fiche_revision"
	DocExercicesEntrainement  = "exercices_entrainement"
	DocCoursComplet           = "cours_complet"
	DocEvaluationDiagnostique = "evaluation_diagnostique"
	DocFicheMethode           = "fiche_methode"
)

type (
	// Slot declares how many bricks of one type a template needs.
	Slot struct {
		Type      content.BrickType `json:"type"`
		Count     int               `json:"count"`
		Mandatory bool              `json:"mandatory"`
	}

	// Template is the static structural contract of one document archetype.
	Template struct {
		Name  string `json:"name"`
		Title string `json:"title"`
		Slots []Slot `json:"slots"`
	}
)

// IdealBrickCount is the number of bricks a fully satisfied template holds.
func (t Template) IdealBrickCount() int {
	var n int
	for _, slot := range t.Slots {
		n += slot.Count
	}
	return n
}

// builtinTemplates returns the fixed archetype table. Templates are
// configuration, not persisted entities; they are fixed at engine construction.
func builtinTemplates() map[string]Template {
	return map[string]Template{
		DocFicheRevision: {
			Name:  DocFicheRevision,
			Title: "Fiche de révision",
			Slots: []Slot{
				{Type: content.TypeDefinition, Count: 2, Mandatory: true},
				{Type: content.TypeTheorem, Count: 1, Mandatory: true},
				{Type: content.TypeExample, Count: 2, Mandatory: true},
				{Type: content.TypeMethodTip, Count: 1, Mandatory: false},
				{Type: content.TypeExercise, Count: 3, Mandatory: true},
			},
		},
		DocExercicesEntrainement: {
			Name:  DocExercicesEntrainement,
			Title: "Exercices d'entraînement",
			Slots: []Slot{
				{Type: content.TypeDefinition, Count: 1, Mandatory: false},
				{Type: content.TypeExercise, Count: 5, Mandatory: true},
				{Type: content.TypeCorrection, Count: 3, Mandatory: true},
				{Type: content.TypeMethodTip, Count: 2, Mandatory: true},
			},
		},
		DocCoursComplet: {
			Name:  DocCoursComplet,
			Title: "Cours complet",
			Slots: []Slot{
				{Type: content.TypeDefinition, Count: 3, Mandatory: true},
				{Type: content.TypeTheorem, Count: 2, Mandatory: true},
				{Type: content.TypeProperty, Count: 2, Mandatory: false},
				{Type: content.TypeExample, Count: 4, Mandatory: true},
				{Type: content.TypeHistoricalNote, Count: 1, Mandatory: false},
				{Type: content.TypeExercise, Count: 2, Mandatory: true},
				{Type: content.TypeMethodTip, Count: 2, Mandatory: true},
			},
		},
		DocEvaluationDiagnostique: {
			Name:  DocEvaluationDiagnostique,
			Title: "Évaluation diagnostique",
			Slots: []Slot{
				{Type: content.TypeExercise, Count: 8, Mandatory: true},
				{Type: content.TypeCorrection, Count: 8, Mandatory: true},
			},
		},
		DocFicheMethode: {
			Name:  DocFicheMethode,
			Title: "Fiche méthode",
			Slots: []Slot{
				{Type: content.TypeDefinition, Count: 1, Mandatory: true},
				{Type: content.TypeMethodTip, Count: 4, Mandatory: true},
				{Type: content.TypeExample, Count: 3, Mandatory: true},
				{Type: content.TypeExercise, Count: 2, Mandatory: true},
			},
		},
	}
}

// sectionOrder is the fixed display order of rendered sections, whatever the
// template's slot order was.
var sectionOrder = []content.BrickType{
	content.TypeDefinition,
	content.TypeTheorem,
	content.TypeProperty,
	content.TypeExample,
	content.TypeExercise,
	content.TypeCorrection,
	content.TypeMethodTip,
	content.TypeHistoricalNote,
	content.TypeDiagram,
	content.TypeFormula,
}

var sectionTitles = map[content.BrickType]string{
	content.TypeDefinition:     "Définitions",
	content.TypeTheorem:        "Théorèmes",
	content.TypeProperty:       "Propriétés",
	content.TypeExample:        "Exemples",
	content.TypeExercise:       "Exercices",
	content.TypeCorrection:     "Corrections",
	content.TypeMethodTip:      "Méthodes et astuces",
	content.TypeHistoricalNote: "Notes historiques",
	content.TypeDiagram:        "Schémas",
	content.TypeFormula:        "Formules",
}

var subjectLabels = map[content.Subject]string{
	content.SubjectMathematics: "Mathématiques",
	content.SubjectPhysChem:    "Physique-Chimie",
	content.SubjectNSI:         "NSI",
	content.SubjectFrench:      "Français",
	content.SubjectPhilosophy:  "Philosophie",
	content.SubjectEnglish:     "Anglais",
	content.SubjectSpanish:     "Espagnol",
	content.SubjectHistoryGeo:  "Histoire-Géographie",
	content.SubjectSES:         "SES",
}

var profileLabels = map[content.Profile]string{
	content.ProfileStruggling:  "En difficulté",
	content.ProfileAverage:     "Moyen",
	content.ProfileExcellence:  "Excellence",
	content.ProfileRemediation: "Remédiation",
}

// suggestionKey pairs a learner profile with a pedagogical phase.
type suggestionKey struct {
	profile content.Profile
	step    content.LearningStep
}

// documentSuggestions maps learner situations to recommended archetypes.
// Unmapped combinations fall back to DocFicheRevision.
var documentSuggestions = map[suggestionKey]string{
	{content.ProfileStruggling, content.StepDiscovery}:   DocCoursComplet,
	{content.ProfileStruggling, content.StepTraining}:    DocFicheMethode,
	{content.ProfileStruggling, content.StepRevision}:    DocFicheRevision,
	{content.ProfileStruggling, content.StepEvaluation}:  DocEvaluationDiagnostique,
	{content.ProfileAverage, content.StepDiscovery}:      DocCoursComplet,
	{content.ProfileAverage, content.StepTraining}:       DocExercicesEntrainement,
	{content.ProfileAverage, content.StepRevision}:       DocFicheRevision,
	{content.ProfileAverage, content.StepEvaluation}:     DocEvaluationDiagnostique,
	{content.ProfileExcellence, content.StepTraining}:    DocExercicesEntrainement,
	{content.ProfileExcellence, content.StepDeepening}:   DocCoursComplet,
	{content.ProfileExcellence, content.StepEvaluation}:  DocEvaluationDiagnostique,
	{content.ProfileRemediation, content.StepDiscovery}:  DocCoursComplet,
	{content.ProfileRemediation, content.StepTraining}:   DocFicheMethode,
	{content.ProfileRemediation, content.StepRevision}:   DocFicheMethode,
	{content.ProfileRemediation, content.StepEvaluation}: DocEvaluationDiagnostique,
}
