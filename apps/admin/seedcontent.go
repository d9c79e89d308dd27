package main

import (
	"time"

	"github.com/nexus-reussite/backend/core/content"
)

// seedContent loads a small demo set of bricks for local development.
func (cli *commandLine) seedContent() error {
	now := time.Now().UTC()

	bricks := []content.Brick{
		{
			Title:           "Définition de la dérivée",
			Content:         "La dérivée de $f$ en $a$ est la limite du taux d'accroissement...",
			Type:            content.TypeDefinition,
			Subject:         content.SubjectMathematics,
			Chapter:         "Dérivation",
			Difficulty:      2,
			TargetProfiles:  []content.Profile{content.ProfileAverage, content.ProfileStruggling},
			LearningSteps:   []content.LearningStep{content.StepDiscovery},
			Tags:            []string{"dérivée", "limite"},
			DurationMinutes: 10,
			AuthorName:      "Équipe Nexus",
		},
		{
			Title:           "Théorème des valeurs intermédiaires",
			Content:         "Si $f$ est continue sur $[a,b]$, alors pour tout $k$ compris entre $f(a)$ et $f(b)$...",
			Type:            content.TypeTheorem,
			Subject:         content.SubjectMathematics,
			Chapter:         "Continuité",
			Difficulty:      3,
			TargetProfiles:  []content.Profile{content.ProfileAverage, content.ProfileExcellence},
			LearningSteps:   []content.LearningStep{content.StepTraining},
			Tags:            []string{"continuité", "tvi"},
			DurationMinutes: 15,
			AuthorName:      "Équipe Nexus",
		},
		{
			Title:           "Exemple : dérivée d'un polynôme",
			Content:         "Calculons la dérivée de $f(x) = 3x^2 + 2x - 1$...",
			Type:            content.TypeExample,
			Subject:         content.SubjectMathematics,
			Chapter:         "Dérivation",
			Difficulty:      1,
			TargetProfiles:  []content.Profile{content.ProfileStruggling, content.ProfileRemediation},
			LearningSteps:   []content.LearningStep{content.StepDiscovery, content.StepTraining},
			Tags:            []string{"dérivée", "polynôme"},
			DurationMinutes: 5,
			AuthorName:      "Équipe Nexus",
		},
		{
			Title:           "Exercice : étude de fonction",
			Content:         "Étudier les variations de $f(x) = x^3 - 3x + 1$ sur $\\mathbb{R}$.",
			Type:            content.TypeExercise,
			Subject:         content.SubjectMathematics,
			Chapter:         "Dérivation",
			Difficulty:      3,
			TargetProfiles:  []content.Profile{content.ProfileAverage},
			LearningSteps:   []content.LearningStep{content.StepTraining, content.StepDeepening},
			Tags:            []string{"dérivée", "variations"},
			DurationMinutes: 20,
			AuthorName:      "Équipe Nexus",
		},
		{
			Title:           "Correction : étude de fonction",
			Content:         "On a $f'(x) = 3x^2 - 3 = 3(x-1)(x+1)$...",
			Type:            content.TypeCorrection,
			Subject:         content.SubjectMathematics,
			Chapter:         "Dérivation",
			Difficulty:      3,
			TargetProfiles:  []content.Profile{content.ProfileAverage},
			LearningSteps:   []content.LearningStep{content.StepTraining},
			Tags:            []string{"dérivée", "variations"},
			DurationMinutes: 10,
			AuthorName:      "Équipe Nexus",
		},
		{
			Title:           "Méthode : tableau de variations",
			Content:         "1. Dériver. 2. Étudier le signe de la dérivée. 3. Dresser le tableau...",
			Type:            content.TypeMethodTip,
			Subject:         content.SubjectMathematics,
			Chapter:         "Dérivation",
			Difficulty:      2,
			TargetProfiles:  []content.Profile{content.ProfileStruggling, content.ProfileAverage},
			LearningSteps:   []content.LearningStep{content.StepTraining, content.StepRevision},
			Tags:            []string{"méthode", "variations"},
			DurationMinutes: 8,
			AuthorName:      "Équipe Nexus",
		},
	}

	for _, b := range bricks {
		b.CreatedAt = now
		b.UpdatedAt = now
		if _, err := cli.brickRepo.CreateBrick(b); err != nil {
			return err
		}
	}
	logger.Printf("seeded %d bricks\n", len(bricks))
	return nil
}
