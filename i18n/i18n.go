// Package i18n holds the French labels of the order form and its documents.
package i18n

import (
	"time"

	"github.com/goodsign/monday"
)

// Lang is the only locale the application speaks.
const Lang = "fr"

const dateTimeLayout = "2 January 2006 à 15:04"

var messages = map[string]string{
	"app.title":            "Bon de commande",
	"doc.purchase_order":   "Bon de commande",
	"doc.delivery_note":    "Bon de livraison",
	"form.document_type":   "Type de document",
	"form.company":         "Nom de l'entreprise",
	"form.email":           "Email",
	"form.save":            "Enregistrer",
	"form.reset":           "Nouveau document",
	"items.reference":      "Référence",
	"items.quantity":       "Quantité",
	"items.unit_price":     "Prix HT (€)",
	"items.discount":       "Remise (%)",
	"items.total":          "Total (€)",
	"items.action":         "Action",
	"items.add":            "Ajouter un article",
	"items.delete":         "Supprimer",
	"items.empty":          "Aucun article",
	"totals.ht":            "Total HT",
	"totals.ttc":           "Total TTC",
	"export.button":        "Générer PDF",
	"pdf.company":          "Entreprise",
	"pdf.email":            "Email",
	"pdf.created_at":       "Date de création",
	"pdf.entered_at":       "Date de saisie",
	"pdf.not_entered":      "Non renseignée",
	"error.logo":           "Impossible de charger le logo.",
	"error.pdf":            "La génération du PDF a échoué.",
	"error.item_not_found": "Article introuvable.",
	"error.unknown_field":  "Champ inconnu.",
	"error.invalid_input":  "Saisie invalide.",
	"error.internal":       "Une erreur est survenue.",
	"logo.alt":             "Logo de l'entreprise",
}

// T returns the label for code, or code itself when no label exists.
func T(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return code
}

// FormatDateTime renders t in the French long style, e.g. "14 octobre 2026 à 10:30".
func FormatDateTime(t time.Time) string {
	return monday.Format(t, dateTimeLayout, monday.LocaleFrFR)
}
