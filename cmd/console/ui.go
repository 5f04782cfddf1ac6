package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/narrative"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

const PlaceHolderText = "Type a command here (try /help)..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *state.GameState
	filter       *narrative.Filter // nil when the rating passes text through
	journal      []journalEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	// Combat mode state. While a session is open, input is interpreted
	// as combat actions instead of turn commands.
	inCombat bool
	combat   *CombatResponse

	// SSE stream state
	eventChan chan SSEEvent

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type journalEntry struct {
	role string // "player", "narrator", "combat", "event", "error"
	text string
}

type turnResponseMsg struct {
	narrative string
	response  *TurnResponse
	err       error
}

type combatResponseMsg struct {
	response *CombatResponse
	err      error
}

type runStateMsg struct {
	gameState *state.GameState
	err       error
}

type sseEventMsg struct {
	event SSEEvent
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")) // violet

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, gs *state.GameState) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	var filter *narrative.Filter
	if narrative.SanitizeForRating(cfg.ContentRating) {
		filter = narrative.NewFilter()
	}

	return ConsoleUI{
		config:       cfg,
		client:       client,
		gameState:    gs,
		filter:       filter,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		eventChan:    make(chan SSEEvent, 16),
		ready:        false,
		journal: []journalEntry{
			{role: "narrator", text: "You arrive at " + displayLocation(gs) + " with nothing but a pouch of silver and a mortal's ambition. The path to immortality starts with a single breath."},
		},
	}
}

func displayLocation(gs *state.GameState) string {
	if gs == nil || gs.Location == "" {
		return "the outer valley"
	}
	return strings.ReplaceAll(gs.Location, "_", " ")
}

func writeMetadata(gs *state.GameState, c *CombatResponse) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("RUN STATE") + "\n\n")

	content.WriteString("Run ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Realm:\n")
	content.WriteString(fmt.Sprintf("%s, stage %d\n\n", gs.Progress.Realm.Title(), gs.Progress.RealmStage))

	content.WriteString("Vitals:\n")
	content.WriteString(fmt.Sprintf("HP %d/%d\n", gs.Stats.HP, gs.Stats.HPMax))
	content.WriteString(fmt.Sprintf("Qi %d/%d\n", gs.Stats.Qi, gs.Stats.QiMax))
	content.WriteString(fmt.Sprintf("Stamina %d/%d\n\n", gs.Stats.Stamina, gs.Stats.StaminaMax))

	content.WriteString("Purse:\n")
	content.WriteString(fmt.Sprintf("%d silver, %d spirit stones\n\n", gs.Inventory.Silver, gs.Inventory.SpiritStones))

	content.WriteString("Calendar:\n")
	content.WriteString(fmt.Sprintf("Year %d, month %d, day %d\n", gs.Time.Year, gs.Time.Month, gs.Time.Day))
	content.WriteString(fmt.Sprintf("Age %d, turn %d\n\n", gs.Age, gs.TurnCount))

	if c != nil {
		content.WriteString(titleStyle.Render("COMBAT") + "\n")
		content.WriteString(fmt.Sprintf("%s\n", c.Enemy.Name))
		content.WriteString(fmt.Sprintf("Enemy HP %d/%d\n\n", c.Enemy.HP, c.Enemy.HPMax))
		content.WriteString("Actions:\n")
		content.WriteString("• attack\n")
		content.WriteString("• qi (qi attack)\n")
		content.WriteString("• defend\n")
		content.WriteString("• flee\n")
		content.WriteString("• skill <id>\n")
	} else {
		content.WriteString("Commands:\n")
		content.WriteString("• meditate, train, rest\n")
		content.WriteString("• explore, hunt\n")
		content.WriteString("• /help: Help\n")
		content.WriteString("• Ctrl+C: Quit\n")
	}

	return content.String()
}

// writeJournalContent rebuilds the journal pane for the current
// viewport width.
func (m *ConsoleUI) writeJournalContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("CULTIVATION ENGINE") + "\n\n")
	content.WriteString("Each command spends one turn of your mortal span.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, entry := range m.journal {
		wrapped := wordwrap.String(entry.text, chatWidth-6)
		switch entry.role {
		case "player":
			content.WriteString(userStyle.Render("You: ") + wrapped + "\n\n")
		case "combat":
			content.WriteString(combatStyle.Render(wrapped) + "\n\n")
		case "event":
			content.WriteString(eventStyle.Render(wrapped) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render(wrapped) + "\n\n")
		default:
			content.WriteString(narratorStyle.Render(wrapped) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.startSSE(), waitForSSE(m.eventChan))
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events through for scrolling and text selection;
		// the components ignore events outside their bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeJournalContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState, m.combat))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.journal = append(m.journal, journalEntry{role: "player", text: input})
			m.writeJournalContent()

			if m.inCombat {
				return m, tea.Batch(m.sendCombatAction(input), progressTick())
			}
			return m, tea.Batch(m.sendTurn(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.journal = append(m.journal, journalEntry{role: "error", text: "Error: " + msg.err.Error()})
		} else {
			m.journal = append(m.journal, journalEntry{role: "narrator", text: m.sanitize(msg.narrative)})
			m.applyTurnResponse(msg.response)
		}
		m.writeJournalContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState, m.combat))
		if msg.err == nil && m.inCombat {
			// The encounter spec may be partial; the session snapshot has
			// the template-filled enemy.
			return m, m.refreshCombat()
		}
		return m, nil

	case combatResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.journal = append(m.journal, journalEntry{role: "error", text: "Error: " + msg.err.Error()})
		} else {
			m.applyCombatResponse(msg.response)
		}
		m.writeJournalContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState, m.combat))
		if msg.err == nil && msg.response != nil && combat.Phase(msg.response.Phase).Terminal() {
			// Re-read the run so the panel reflects persisted rewards.
			return m, m.refreshRun()
		}
		return m, nil

	case runStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.metaViewport.SetContent(writeMetadata(m.gameState, m.combat))
		}

	case sseEventMsg:
		if text := describeSSEEvent(msg.event); text != "" {
			m.journal = append(m.journal, journalEntry{role: "event", text: text})
			m.writeJournalContent()
		}
		return m, waitForSSE(m.eventChan)

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeJournalContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) applyTurnResponse(resp *TurnResponse) {
	if resp.GameState != nil {
		m.gameState = resp.GameState
	}
	if resp.Outcome != nil {
		if resp.Outcome.Breakthrough != nil {
			bt := resp.Outcome.Breakthrough
			m.journal = append(m.journal, journalEntry{role: "event",
				text: fmt.Sprintf("BREAKTHROUGH! You ascend to %s, stage %d.", bt.NewRealm.Title(), bt.NewStage)})
		}
		for _, w := range resp.Outcome.Warnings {
			m.journal = append(m.journal, journalEntry{role: "error",
				text: fmt.Sprintf("(a change to %s was rejected: %s)", w.Field, w.Detail)})
		}
	}
	if resp.CombatSessionID != "" {
		m.inCombat = true
		if resp.Outcome != nil && resp.Outcome.Encounter != nil {
			spec := resp.Outcome.Encounter
			m.combat = &CombatResponse{
				SessionID: resp.CombatSessionID,
				Enemy: combat.Enemy{
					ID: spec.ID, Name: spec.Name,
					HP: spec.HP, HPMax: spec.HPMax,
					Atk: spec.Atk, Def: spec.Def,
				},
			}
			m.journal = append(m.journal, journalEntry{role: "combat",
				text: fmt.Sprintf("%s blocks your path! Battle begins.", spec.Name)})
		}
	}
}

func (m *ConsoleUI) applyCombatResponse(resp *CombatResponse) {
	m.combat = resp
	for _, entry := range resp.Log {
		m.journal = append(m.journal, journalEntry{role: "combat", text: entry.Text})
	}
	if resp.Reward != nil {
		m.journal = append(m.journal, journalEntry{role: "event",
			text: fmt.Sprintf("Spoils: %d silver, %d spirit stones.", resp.Reward.Silver, resp.Reward.SpiritStones)})
	}
	if resp.Phase.Terminal() {
		m.inCombat = false
		m.combat = nil
	}
}

func describeSSEEvent(ev SSEEvent) string {
	switch ev.Type {
	case "turn.queued":
		return "(a turn was queued for this run)"
	case "turn.failed":
		return "(a queued turn for this run failed)"
	default:
		// Everything else is already rendered from the sync response.
		return ""
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• meditate - Circulate qi (restores qi, earns cultivation exp)
• train - Physical conditioning (earns exp, costs stamina)
• rest - A day of rest at the inn (restores vitals, costs silver)
• explore - Search the surrounding wilds
• hunt - Seek out a beast to fight
• /copy - Copy the run ID to the clipboard
• /help - Show this help
• Ctrl+C - Quit

In combat: attack, qi, defend, flee, or skill <id>.
`
		m.journal = append(m.journal, journalEntry{role: "narrator", text: helpText})
		m.writeJournalContent()

	case "/copy":
		if err := clipboard.WriteAll(m.gameState.ID.String()); err != nil {
			m.journal = append(m.journal, journalEntry{role: "error", text: "Could not copy run ID: " + err.Error()})
		} else {
			m.journal = append(m.journal, journalEntry{role: "event", text: "Run ID copied to clipboard."})
		}
		m.writeJournalContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendTurn(input string) tea.Cmd {
	return func() tea.Msg {
		tr, err := turnForCommand(input)
		if err != nil {
			return turnResponseMsg{err: err}
		}
		resp, err := postTurn(m.client, m.config.APIBaseURL, m.gameState.ID, tr)
		return turnResponseMsg{narrative: tr.Narrative, response: resp, err: err}
	}
}

// sanitize runs journal text through the content filter when the
// configured rating asks for it.
func (m *ConsoleUI) sanitize(text string) string {
	if m.filter == nil {
		return text
	}
	return m.filter.Sanitize(text)
}

func (m ConsoleUI) sendCombatAction(input string) tea.Cmd {
	return func() tea.Msg {
		action, skillID := parseCombatInput(input)
		resp, err := postCombatAction(m.client, m.config.APIBaseURL, m.gameState.ID, action, skillID)
		return combatResponseMsg{resp, err}
	}
}

func parseCombatInput(input string) (action, skillID string) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return "", ""
	}
	switch fields[0] {
	case "qi":
		return "qi_attack", ""
	case "skill":
		if len(fields) > 1 {
			return "skill", fields[1]
		}
		return "skill", ""
	default:
		return fields[0], ""
	}
}

func (m ConsoleUI) refreshCombat() tea.Cmd {
	return func() tea.Msg {
		resp, err := getCombatState(m.client, m.config.APIBaseURL, m.gameState.ID)
		return combatResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshRun() tea.Cmd {
	return func() tea.Msg {
		gs, err := getRun(m.client, m.config.APIBaseURL, m.gameState.ID)
		return runStateMsg{gs, err}
	}
}

func (m ConsoleUI) startSSE() tea.Cmd {
	// The stream lives for the whole program; tearing down the
	// terminal closes the connection with the process.
	ctx := context.Background()
	baseURL := m.config.APIBaseURL
	runID := m.gameState.ID
	ch := m.eventChan
	transport := m.client.Transport
	return func() tea.Msg {
		// The SSE request must outlive the client's request timeout, so
		// it gets its own client sharing only the transport.
		sseClient := &http.Client{Transport: transport}
		_ = listenToSSE(ctx, sseClient, baseURL, runID, ch)
		return nil
	}
}

func waitForSSE(ch <-chan SSEEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sseEventMsg{event: ev}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abandon Cultivation?"))
	content.WriteString("\n\n")
	content.WriteString("Your run is saved on the server and can be resumed by ID.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(56).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

// turnForCommand composes the TurnResult for a console command. The
// console stands in for the narrative generator, so each command maps
// to a fixed narrative and delta set.
func turnForCommand(input string) (*state.TurnResult, error) {
	verb := strings.ToLower(strings.Fields(input)[0])
	switch verb {
	case "meditate":
		return &state.TurnResult{
			Narrative: "You sit cross-legged through the night, drawing thin threads of spirit qi from the valley air into your dantian.",
			Choices: []state.Choice{
				{ID: "continue", Text: "Meditate another night"},
				{ID: "stop", Text: "Rise and stretch"},
			},
			ProposedDeltas: []state.Delta{
				{Field: "stats.qi", Operation: state.OpAdd, Value: json.RawMessage(`10`), Reason: "night meditation"},
				{Field: "progress.cultivation_exp", Operation: state.OpAdd, Value: json.RawMessage(`30`), Reason: "night meditation"},
				{Field: "time.day", Operation: state.OpAdd, Value: json.RawMessage(`1`), Reason: "a day passes"},
			},
		}, nil
	case "train":
		return &state.TurnResult{
			Narrative: "You spend the day striking the training post until your knuckles split, then bind them and strike again.",
			Choices: []state.Choice{
				{ID: "continue", Text: "Keep training"},
				{ID: "stop", Text: "Rest your hands"},
			},
			ProposedDeltas: []state.Delta{
				{Field: "stats.stamina", Operation: state.OpSubtract, Value: json.RawMessage(`15`), Reason: "hard training"},
				{Field: "progress.cultivation_exp", Operation: state.OpAdd, Value: json.RawMessage(`20`), Reason: "hard training"},
				{Field: "time.day", Operation: state.OpAdd, Value: json.RawMessage(`1`), Reason: "a day passes"},
			},
		}, nil
	case "rest":
		return &state.TurnResult{
			Narrative: "You take a room above the tea house and sleep until the sun is high, waking with clear meridians and a lighter purse.",
			Choices: []state.Choice{
				{ID: "continue", Text: "Stay another day"},
				{ID: "leave", Text: "Check out"},
			},
			ProposedDeltas: []state.Delta{
				{Field: "stats.hp", Operation: state.OpAdd, Value: json.RawMessage(`40`), Reason: "a full rest"},
				{Field: "stats.stamina", Operation: state.OpAdd, Value: json.RawMessage(`40`), Reason: "a full rest"},
				{Field: "inventory.silver", Operation: state.OpSubtract, Value: json.RawMessage(`10`), Reason: "room and board"},
				{Field: "time.day", Operation: state.OpAdd, Value: json.RawMessage(`1`), Reason: "a day passes"},
			},
		}, nil
	case "explore":
		return &state.TurnResult{
			Narrative: "You follow a dry streambed into the hills and find a vein of low-grade spirit stones glittering in the shale.",
			Choices: []state.Choice{
				{ID: "mine", Text: "Pry the stones loose"},
				{ID: "leave", Text: "Mark the spot and move on"},
			},
			ProposedDeltas: []state.Delta{
				{Field: "inventory.spirit_stones", Operation: state.OpAdd, Value: json.RawMessage(`2`), Reason: "surface vein"},
				{Field: "stats.stamina", Operation: state.OpSubtract, Value: json.RawMessage(`10`), Reason: "a long hike"},
				{Field: "time.day", Operation: state.OpAdd, Value: json.RawMessage(`1`), Reason: "a day passes"},
			},
		}, nil
	case "hunt":
		return &state.TurnResult{
			Narrative: "You track paw prints along the ravine until a low growl rolls out of the brush ahead. Something has been tracking you too.",
			Choices: []state.Choice{
				{ID: "fight", Text: "Stand your ground"},
				{ID: "retreat", Text: "Back away slowly"},
			},
			ProposedDeltas: []state.Delta{
				{Field: "stats.stamina", Operation: state.OpSubtract, Value: json.RawMessage(`5`), Reason: "tracking"},
			},
			Events: []state.Event{
				{
					Type: state.EventTypeCombatEncounter,
					Data: json.RawMessage(`{"enemy":{"id":"ravine_wolf","template_id":"ravine_wolf","name":"Ravine Wolf"}}`),
				},
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown command %q (try /help)", verb)
}
