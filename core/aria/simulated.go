package aria

import (
	"context"
	"hash/fnv"
)

// simulatedCompleter stands in for the real language model in development and
// tests. Replies are canned but deterministic for a given question, so
// conversations are reproducible.
type simulatedCompleter struct{}

func NewSimulatedCompleter() Completer {
	return &simulatedCompleter{}
}

var cannedReplies = []string{
	"Bonne question ! Commençons par reprendre la définition : peux-tu me dire ce que tu en comprends déjà ?",
	"Je te propose de décomposer le problème en étapes. Quelle est la première chose que l'énoncé te donne ?",
	"C'est un point qui pose souvent difficulté. Relis la propriété du cours, puis essaie de l'appliquer sur un exemple simple.",
	"Très bien. Pour t'entraîner, je te conseille de refaire un exercice du même chapitre en changeant les valeurs.",
	"Pense à vérifier les conditions d'application avant d'utiliser le théorème : c'est l'erreur la plus fréquente.",
	"Tu es sur la bonne voie. Rédige ta réponse comme si tu l'expliquais à un camarade, cela t'aidera à clarifier ton raisonnement.",
}

func (c *simulatedCompleter) Complete(_ context.Context, _ string, prompt string) (string, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return cannedReplies[h.Sum32()%uint32(len(cannedReplies))], nil
}
