package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/appolinair2355/damebot/internal/bus"
)

const helpText = `🤖 COMMANDES :
/status - État du mode INTER et bilan des prédictions.
/inter - Historique des déclencheurs appris et activation interactive.
/defaut - Désactive le mode INTER (règles statiques).
/bilan - Statistiques de réussite des prédictions.
/setsource <id> - Définit le canal source.
/setprediction <id> - Définit le canal de prédiction.`

func (g *Gateway) handleCommand(msg bus.InboundMessage) {
	g.log.Info("command received",
		zap.String("command", msg.Command),
		zap.Int64("chat", msg.ChatID))

	switch msg.Command {
	case "start":
		g.reply(msg.ChatID, "Bot DAME PRÉDICTION démarré. Utilisez /status ou /help.")
	case "help":
		g.reply(msg.ChatID, helpText)
	case "status":
		g.replyStatus(msg.ChatID)
	case "inter":
		g.replyInterStatus(msg.ChatID)
	case "defaut":
		g.engine.SetInterActive(false)
		g.reply(msg.ChatID, "✅ Mode INTER DÉSACTIVÉ. Les prédictions utilisent les règles statiques.")
	case "bilan":
		g.reply(msg.ChatID, g.engine.StatsSnapshot().Summary())
	case "setsource":
		g.setChannelRole(msg, "source")
	case "setprediction":
		g.setChannelRole(msg, "prediction")
	}
}

func (g *Gateway) reply(chatID int64, text string) {
	g.bus.Outbound <- bus.OutboundMessage{Channel: "telegram", ChatID: chatID, Text: text}
}

func (g *Gateway) setChannelRole(msg bus.InboundMessage, role string) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.Args), 10, 64)
	if err != nil {
		g.reply(msg.ChatID, fmt.Sprintf("Usage : /set%s <identifiant numérique du canal>", role))
		return
	}
	g.engine.SetChannelRole(role, id)
	g.reply(msg.ChatID, fmt.Sprintf("✅ Canal %s configuré : %d", role, id))
}

func (g *Gateway) replyStatus(chatID int64) {
	inter := g.engine.InterStatusSnapshot()
	stats := g.engine.StatsSnapshot()

	mode := "🔴 INACTIF (règles statiques)"
	if inter.Active {
		mode = fmt.Sprintf("🟢 ACTIF (%d règles)", len(inter.Rules))
	}

	g.reply(chatID, fmt.Sprintf(
		"📊 Statut du Predictor :\nMode INTER : %s\nHistorique Q collecté : %d entrées\n\n%s",
		mode, inter.Entries, stats.Summary()))
}

// replyInterStatus shows the learner state: active rules, the last
// collected associations, and the activation keyboard.
func (g *Gateway) replyInterStatus(chatID int64) {
	st := g.engine.InterStatusSnapshot()

	var sb strings.Builder
	sb.WriteString("📋 STATUT D'APPRENTISSAGE INTER (N-2 → Q à N) 🧠\n\n")
	if st.Active {
		sb.WriteString("Mode Intelligent Actif : ✅ OUI\n")
	} else {
		sb.WriteString("Mode Intelligent Actif : ❌ NON\n")
	}
	fmt.Fprintf(&sb, "Historique Q collecté : %d entrées\n", st.Entries)

	if st.Active && len(st.Rules) > 0 {
		sb.WriteString("\n🎯 Règles Actives (Top 3 Déclencheurs) :\n")
		for _, rule := range st.Rules {
			cards := "Inconnu"
			if len(rule.Cards) == 2 {
				cards = rule.Cards[0] + " " + rule.Cards[1]
			}
			fmt.Fprintf(&sb, "- %s (x%d)\n", cards, rule.Count)
		}
	}

	if st.Entries > 0 {
		sb.WriteString("\nDerniers Enregistrements (N-2 → Q à N) :\n")
		for _, entry := range st.Recent {
			trigger := "Inconnu"
			if len(entry.Trigger) == 2 {
				trigger = entry.Trigger[0] + " " + entry.Trigger[1]
			}
			fmt.Fprintf(&sb, "• N%d ← Déclencheur N%d (%s)\n",
				entry.ResultGame, entry.TriggerGame, trigger)
		}
	} else {
		sb.WriteString("\nAucun historique de Dame (Q) collecté.\nAucune action disponible. Attendez plus de données.")
		g.reply(chatID, sb.String())
		return
	}

	applyText := fmt.Sprintf("✅ Activer Mode Intelligent (%d entrées)", st.Entries)
	defaultText := "➡️ Règle par Défaut (Actif)"
	if st.Active {
		applyText = fmt.Sprintf("🔄 Re-analyser et Appliquer (%d règles)", len(st.Rules))
		defaultText = "❌ Désactiver le mode INTER (Passer en Statique)"
	}

	g.bus.Outbound <- bus.OutboundMessage{
		Channel: "telegram",
		ChatID:  chatID,
		Text:    sb.String(),
		Keyboard: [][]bus.Button{
			{{Text: applyText, Data: "inter_apply"}},
			{{Text: defaultText, Data: "inter_default"}},
		},
	}
}

func (g *Gateway) handleCallback(cb *bus.CallbackEvent) {
	if g.transport == nil {
		return
	}
	if err := g.transport.AnswerCallback(cb.ID); err != nil {
		g.log.Error("answer callback failed", zap.Error(err))
	}

	var confirmation string
	switch cb.Data {
	case "inter_apply":
		g.engine.SetInterActive(true)
		st := g.engine.InterStatusSnapshot()
		if st.Active {
			confirmation = fmt.Sprintf("✅ Mode Intelligent ACTIVÉ ! %d règle(s) appliquée(s) pour les prédictions (N+2).", len(st.Rules))
		} else {
			confirmation = "⚠️ Pas assez de données : aucune règle dérivée, le mode reste inactif."
		}
	case "inter_default":
		g.engine.SetInterActive(false)
		confirmation = "❌ Mode Intelligent DÉSACTIVÉ. Les prédictions restent en règles statiques."
	default:
		return
	}

	if cb.ChatID != 0 && cb.MessageID != 0 {
		if err := g.transport.EditText(cb.ChatID, cb.MessageID, confirmation); err != nil {
			g.metrics.TransportFaults.Inc()
			g.log.Error("edit callback confirmation failed", zap.Error(err))
		}
	}
}
