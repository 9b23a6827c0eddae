package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/internal/statemachine"
	"github.com/aretw0/tick/pkg/domain"
)

// Overlay contains dynamic session data to visualize on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// SessionOverlay builds the overlay of a session snapshot.
func SessionOverlay(s domain.Session) *Overlay {
	return &Overlay{Visited: s.RanHandlers, Current: s.CurrentState}
}

// GenerateMermaid produces a Mermaid flowchart of the story state tree.
// Groups become subgraphs and leaves take a shape from their action:
// - Final: ([Stadium])
// - Handler: [[Subroutine]]
// - Awaiting input (no handler): [/Parallelogram/]
// Intent transitions are solid arrows, trigger transitions dotted ones.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(story *compiler.Story, overlay *Overlay) string {
	m := story.Machine()
	root, _ := m.Node(m.Root())

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, child := range root.Children {
		writeNode(&sb, story, child, 1)
	}

	for _, id := range m.States() {
		writeTransitions(&sb, m, id)
	}

	for _, a := range story.Actions() {
		if a.TargetStory != "" {
			storyID := "story_" + sanitizeMermaidID(a.TargetStory)
			sb.WriteString(fmt.Sprintf("    %s[(\"%s\")]\n", storyID, a.TargetStory))
			sb.WriteString(fmt.Sprintf("    %s ==> %s\n", sanitizeMermaidID(a.Name), storyID))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.Visited {
			// History may name states of a previous version of the story.
			if !m.Contains(id) {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && id != overlay.Current {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current != "" && m.Contains(overlay.Current) {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func writeNode(sb *strings.Builder, story *compiler.Story, n *statemachine.Node, depth int) {
	indent := strings.Repeat("    ", depth)
	safeID := sanitizeMermaidID(n.ID)

	if !n.IsLeaf() {
		sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, safeID, n.ID))
		for _, child := range n.Children {
			writeNode(sb, story, child, depth+1)
		}
		sb.WriteString(indent + "end\n")
		return
	}

	opener, closer := "[", "]"
	label := n.ID
	if a, ok := story.Action(n.ID); ok {
		switch {
		case a.Final:
			opener, closer = "([", "])" // Stadium
		case a.Handler != "":
			opener, closer = "[[", "]]" // Subroutine
		default:
			opener, closer = "[/", "/]" // Parallelogram (Input)
		}
		if a.AnswerID != "" {
			label = fmt.Sprintf("%s <br/> %s", n.ID, a.AnswerID)
		}
	}
	sb.WriteString(fmt.Sprintf("%s%s%s\"%s\"%s\n", indent, safeID, opener, label, closer))
}

func writeTransitions(sb *strings.Builder, m *statemachine.Machine, id string) {
	transitions := m.Transitions(id)
	events := make([]domain.Event, 0, len(transitions))
	for ev := range transitions {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Name < events[j].Name
	})

	safeID := sanitizeMermaidID(id)
	for _, ev := range events {
		safeTo := sanitizeMermaidID(transitions[ev])
		name := strings.ReplaceAll(ev.Name, "\"", "'")
		arrow := fmt.Sprintf("-- \"%s\" -->", name)
		if ev.Kind == domain.EventTrigger {
			arrow = fmt.Sprintf("-. \"⚡ %s\" .->", name)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	// "end" closes a subgraph in Mermaid.
	if strings.EqualFold(s, "end") {
		s = "state_" + s
	}
	return s
}
