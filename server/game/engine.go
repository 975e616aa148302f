package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"reppoker/server/chat"
	"reppoker/server/engine"
)

// A table starts the moment this many players are seated.
const minPlayers = 4

var ErrUnknownLeague = errors.New("unknown league")

// Store is the persistence contract: fn runs with the game row locked for
// the whole read-modify-write, commit on success. fn returning a nil game
// means "no state change" (the stale-action path).
type Store interface {
	WithGame(ctx context.Context, gameID string, fn func(*Game) (*Game, error)) error
}

// Engine drives the full hand lifecycle. It holds no game state itself:
// every operation loads the Game document, mutates it and persists it.
type Engine struct {
	Store   Store
	Chat    chat.Messenger
	SiteURL string
	DevMode bool

	// Seed pins shuffles for tests; zero means time-seeded per hand.
	Seed    int64
	seedCtr atomic.Int64
}

func NewEngine(store Store, messenger chat.Messenger, siteURL string, devMode bool) *Engine {
	return &Engine{Store: store, Chat: messenger, SiteURL: siteURL, DevMode: devMode}
}

func (e *Engine) handRand() *rand.Rand {
	if e.Seed != 0 {
		return rand.New(rand.NewSource(e.Seed + e.seedCtr.Add(1)))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GameID derives the durable key from the originating channel and message.
func GameID(channel, ts string) string { return channel + "-" + ts }

// ID reconstructs the game's own key.
func (g *Game) ID() string { return GameID(g.Channel, g.ThreadTS) }

// StartGame announces a new table and creates the pending game keyed by the
// announcement's thread. leagueName accepts aliases or "random".
func (e *Engine) StartGame(ctx context.Context, host, channel, leagueName string, highStakes bool) (string, error) {
	var name string
	var league League
	if strings.EqualFold(strings.TrimSpace(leagueName), "random") {
		name, league = RandomLeague(e.handRand())
	} else {
		var ok bool
		name, league, ok = ResolveLeague(leagueName)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownLeague, leagueName)
		}
	}

	buyin := league.Buyin
	stakes := ""
	if highStakes {
		buyin *= 2
		stakes = "high-stakes "
	}

	text := fmt.Sprintf(
		"<@%s> is hosting a %sgame of Texas Hold'em, %s edition! The buy-in is %d %s. React to this message to take a seat - we deal at %d players.",
		host, stakes, name, buyin, league.Units, minPlayers)
	_, ts, err := e.Chat.PostMessage(ctx, chat.Message{Channel: channel, Text: text})
	if err != nil {
		return "", err
	}
	if ts == "" {
		// Dev transports that have no real timestamps still need a stable key.
		ts = uuid.NewString()
	}

	gameID := GameID(channel, ts)
	err = e.Store.WithGame(ctx, gameID, func(g *Game) (*Game, error) {
		if g != nil {
			return nil, fmt.Errorf("game %s already exists", gameID)
		}
		return &Game{
			Status:   StatusPending,
			Channel:  channel,
			ThreadTS: ts,
			Host:     host,
			League:   name,
			Buyin:    buyin,
			DevMode:  e.DevMode,
			Players:  []string{},
			Handles:  map[string]string{},
			Labels:   map[string]string{},
			Hands:    map[string][]engine.Card{},
			Bets:     map[string]int{},
			Folded:   []string{},
		}, nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("game %s: created (%s, buy-in %d)", gameID, name, buyin)
	return gameID, nil
}

// HandleJoin seats a reacting player on a pending game and deals once the
// table is full. Reactions to unrelated messages or mid-hand reactions are
// ignored.
func (e *Engine) HandleJoin(ctx context.Context, gameID, user string) error {
	return e.Store.WithGame(ctx, gameID, func(g *Game) (*Game, error) {
		if g == nil || g.Status != StatusPending {
			return nil, nil
		}
		if g.HasPlayer(user) && !g.DevMode {
			return nil, nil
		}
		g.Players = append(g.Players, user)
		log.Printf("game %s: player %s joined (%d/%d)", gameID, user, len(g.Players), minPlayers)
		if len(g.Players) >= minPlayers {
			if err := e.startHand(ctx, g); err != nil {
				return nil, err
			}
		}
		return g, nil
	})
}

// startHand initializes every per-hand field and runs the first advance.
func (e *Engine) startHand(ctx context.Context, g *Game) error {
	if g.DevMode {
		// One human drives all four seats; prompts all land on the host.
		g.Players = []string{"player1", "player2", "player3", "player4"}
		for _, p := range g.Players {
			g.Handles[p] = g.Host
		}
	} else {
		for _, p := range g.Players {
			g.Handles[p] = p
		}
	}

	r := e.handRand()
	r.Shuffle(len(g.Players), func(i, j int) {
		g.Players[i], g.Players[j] = g.Players[j], g.Players[i]
	})

	mentions := make([]string, len(g.Players))
	for i, p := range g.Players {
		mentions[i] = fmt.Sprintf("<@%s>", g.Handles[p])
	}
	text := fmt.Sprintf("Game on! The order of play is %s. I'll deal.", strings.Join(mentions, ", "))
	resendPayload := chat.ActionPayload{GameID: g.ID(), ThreadTS: g.ThreadTS}
	if _, _, err := e.Chat.PostMessage(ctx, chat.Message{
		Channel:  g.Channel,
		ThreadTS: g.ThreadTS,
		Text:     text,
		Blocks: []chat.Block{
			chat.SectionBlock(text),
			chat.ActionsBlock("start", chat.NewButton("Resend Bet Buttons", resendPayload.Encode(), "resend")),
		},
	}); err != nil {
		return err
	}

	deck := engine.ShuffledDeck(r)
	for _, p := range g.Players {
		g.Hands[p] = []engine.Card{deck.Draw(), deck.Draw()}
		g.Bets[p] = g.Buyin
		if err := e.Chat.PostEphemeral(ctx, chat.Message{
			Channel:  g.Channel,
			ThreadTS: g.ThreadTS,
			User:     g.Handles[p],
			Text:     "Your hole cards",
			Blocks: []chat.Block{
				chat.ImageBlock("Good luck (I say that to everyone)", e.combinedCardsURL(g.Hands[p]), "Poker cards"),
			},
		}); err != nil {
			return err
		}
	}

	deck.Burn() // for old time's sake

	g.Flop = []engine.Card{deck.Draw(), deck.Draw(), deck.Draw()}
	g.Turn = deck.Draw()
	g.River = deck.Draw()

	g.CurrentBet = g.Buyin
	g.Folded = []string{}
	g.Labels = map[string]string{}
	for _, p := range phaseOrder {
		pr := g.progressFor(p)
		*pr.Complete = false
		*pr.Idx = -1
		*pr.RoundTrip = false
	}
	g.Status = StatusInProgress

	return e.advance(ctx, g, "")
}

// advance runs the betting state machine: pick the first incomplete phase,
// select the next unfolded player, and either prompt them or settle the
// phase and continue. The loop is bounded by the four phases.
func (e *Engine) advance(ctx context.Context, g *Game, msg string) error {
	for {
		if len(g.Folded) >= len(g.Players)-1 {
			return e.finish(ctx, g, msg)
		}
		phase, ok := g.currentPhase()
		if !ok {
			return e.finish(ctx, g, msg)
		}

		pr := g.progressFor(phase)
		idx := *pr.Idx + 1
		if idx == len(g.Players) {
			idx = 0
			*pr.RoundTrip = true
		}
		// Terminates: at least two players remain unfolded here.
		for g.IsFolded(g.Players[idx]) {
			idx++
			if idx == len(g.Players) {
				idx = 0
				*pr.RoundTrip = true
			}
		}

		player := g.Players[idx]
		if g.Bets[player] < g.CurrentBet || !*pr.RoundTrip {
			*pr.Idx = idx
			g.CurrentPlayer = player
			return e.promptBet(ctx, g, msg)
		}

		// Phase settled: flush the pending action text, reveal, move on.
		if msg != "" {
			if _, _, err := e.Chat.PostMessage(ctx, chat.Message{Channel: g.Channel, ThreadTS: g.ThreadTS, Text: msg}); err != nil {
				return err
			}
			msg = ""
		}
		if err := e.revealCommunity(ctx, g, phase); err != nil {
			return err
		}
		*pr.Complete = true
	}
}

// promptBet announces whose turn it is and sends them the action buttons.
func (e *Engine) promptBet(ctx context.Context, g *Game, msg string) error {
	handle := g.Handles[g.CurrentPlayer]
	text := fmt.Sprintf("The bet is to <@%s>", handle)
	if msg != "" {
		text = msg + " " + text
	}
	if _, _, err := e.Chat.PostMessage(ctx, chat.Message{
		Channel:  g.Channel,
		ThreadTS: g.ThreadTS,
		Text:     text,
		Blocks:   []chat.Block{chat.SectionBlock(text)},
	}); err != nil {
		return err
	}
	payload := chat.ActionPayload{GameID: g.ID(), Player: g.CurrentPlayer, ThreadTS: g.ThreadTS}
	return e.Chat.PostEphemeral(ctx, chat.Message{
		Channel:  g.Channel,
		ThreadTS: g.ThreadTS,
		User:     handle,
		Text:     "Your bet",
		Blocks:   e.betBlocks(g, payload),
	})
}

// betBlocks builds the per-player prompt: their cards, the visible board,
// and the five action buttons.
func (e *Engine) betBlocks(g *Game, payload chat.ActionPayload) []chat.Block {
	player := payload.Player
	diff := g.CurrentBet - g.Bets[player]
	units := capitalize(Leagues[g.League].Units)

	body := fmt.Sprintf("Your bet: %s", g.HoleCardText(player))
	if community := g.VisibleCommunity(); len(community) > 0 {
		body += "\nCommunity cards: " + cardText(community)
	}

	checkLabel := "Check"
	if diff > 0 {
		checkLabel = fmt.Sprintf("Call (+%d %s)", diff, units)
	}
	raiseLabel := func(mult int) string {
		label := fmt.Sprintf("Raise %d %s", g.Buyin*mult, units)
		if diff > 0 {
			label += fmt.Sprintf(" (+%d)", g.Buyin*mult+diff)
		}
		return label
	}

	value := payload.Encode()
	return []chat.Block{
		chat.MarkdownSection(body),
		chat.ActionsBlock("actions1",
			chat.NewButton(checkLabel, value, "check"),
			chat.NewButton(raiseLabel(1), value, "raise"),
			chat.NewButton(raiseLabel(2), value, "double"),
			chat.NewButton(raiseLabel(3), value, "triple"),
			chat.NewButton("Fold", value, "fold"),
		),
	}
}

// revealCommunity posts the cards unlocked by a settled phase. The flop
// shows three at once; turn and river show one each; river settles into the
// showdown with nothing left to reveal.
func (e *Engine) revealCommunity(ctx context.Context, g *Game, phase Phase) error {
	var block chat.Block
	switch phase {
	case PhaseOpening:
		block = chat.ImageBlock("Here's the flop!", e.combinedCardsURL(g.Flop), "Poker cards")
	case PhaseFlop:
		block = chat.ImageBlock("The turn", e.cardURL(g.Turn), "A poker card")
	case PhaseTurn:
		block = chat.ImageBlock("Last, but not least: The River", e.cardURL(g.River), "A poker card")
	case PhaseRiver:
		return nil
	}
	_, _, err := e.Chat.PostMessage(ctx, chat.Message{
		Channel:  g.Channel,
		ThreadTS: g.ThreadTS,
		Text:     block.Title.Text,
		Blocks:   []chat.Block{block},
	})
	return err
}

// finish settles the hand: a lone survivor wins without a showdown;
// otherwise every active player's best 7-card hand is scored and the
// winner set is everyone matching the maximum tuple exactly.
func (e *Engine) finish(ctx context.Context, g *Game, msg string) error {
	g.Status = StatusComplete
	g.CurrentPlayer = ""
	active := g.ActivePlayers()
	units := Leagues[g.League].Units

	if msg != "" {
		if _, _, err := e.Chat.PostMessage(ctx, chat.Message{Channel: g.Channel, ThreadTS: g.ThreadTS, Text: msg}); err != nil {
			return err
		}
	}

	if len(active) == 1 {
		winner := active[0]
		g.Winners = []string{winner}
		log.Printf("game %s: %s wins by default", g.ID(), winner)
		text := fmt.Sprintf("Go ahead and rest on your laurels <@%s> (%s) - you won!", g.Handles[winner], g.LabelFor(winner))
		for _, p := range g.Folded {
			text += fmt.Sprintf("\n• <@%s> owes %d %s", g.Handles[p], g.Bets[p], units)
		}
		_, _, err := e.Chat.PostMessage(ctx, chat.Message{Channel: g.Channel, ThreadTS: g.ThreadTS, Text: text, Broadcast: true})
		return err
	}

	scores := make(map[string]engine.Score, len(active))
	var top engine.Score
	for i, p := range active {
		s := engine.BestOfSeven(g.SevenFor(p))
		scores[p] = s
		if i == 0 || s.Beats(top) {
			top = s
		}
	}
	var winners []string
	for _, p := range active {
		if scores[p].Compare(top) == 0 {
			winners = append(winners, p)
		}
	}
	g.Winners = winners
	log.Printf("game %s: showdown won by %v with %s", g.ID(), winners, top.Category)

	reveal := fmt.Sprintf("Time for a showdown:\n• Community cards: %s", cardText(g.VisibleCommunity()))
	for _, p := range active {
		reveal += fmt.Sprintf("\n• %s: %s", g.LabelFor(p), g.HoleCardText(p))
	}
	if _, _, err := e.Chat.PostMessage(ctx, chat.Message{Channel: g.Channel, ThreadTS: g.ThreadTS, Text: reveal}); err != nil {
		return err
	}

	var text string
	if len(winners) == 1 {
		text = fmt.Sprintf("Go ahead and rest on your laurels <@%s> - you won with a %s", g.Handles[winners[0]], top.Category)
	} else {
		mentions := make([]string, len(winners))
		for i, p := range winners {
			mentions[i] = fmt.Sprintf("<@%s>", g.Handles[p])
		}
		text = fmt.Sprintf("We had a tie (what is this, soccer?): %s all had the same hand (%s)",
			strings.Join(mentions, " and "), top.Category)
	}
	for _, p := range g.Players {
		if isWinner(winners, p) {
			continue
		}
		text += fmt.Sprintf("\n• <@%s> owes %d %s", g.Handles[p], g.Bets[p], units)
	}
	_, _, err := e.Chat.PostMessage(ctx, chat.Message{Channel: g.Channel, ThreadTS: g.ThreadTS, Text: text, Broadcast: true})
	return err
}

// ----- player actions -----

// actionable filters out stale or duplicate button presses: anything not
// from the addressed player on a live hand is silently discarded.
func actionable(g *Game, p chat.ActionPayload) bool {
	return g != nil && g.Status == StatusInProgress && g.CurrentPlayer == p.Player
}

func (g *Game) recordLabel(player, name string) {
	if _, ok := g.Labels[player]; !ok && name != "" {
		g.Labels[player] = name
	}
}

// HandleCheck matches the standing bet (a call) or passes (a check).
func (e *Engine) HandleCheck(ctx context.Context, name string, p chat.ActionPayload) error {
	return e.Store.WithGame(ctx, p.GameID, func(g *Game) (*Game, error) {
		if !actionable(g, p) {
			return nil, nil
		}
		g.recordLabel(p.Player, name)
		verb := "checks"
		if g.Bets[p.Player] < g.CurrentBet {
			verb = "calls"
		}
		g.Bets[p.Player] = g.CurrentBet
		msg := fmt.Sprintf("%s %s.", g.LabelFor(p.Player), verb)
		if err := e.advance(ctx, g, msg); err != nil {
			return nil, err
		}
		return g, nil
	})
}

// HandleRaise adds mult×buy-in on top of the table's standing bet. Every
// raise resets the bar all players must meet.
func (e *Engine) HandleRaise(ctx context.Context, name string, p chat.ActionPayload, mult int) error {
	if mult < 1 || mult > 3 {
		return fmt.Errorf("raise multiple %d out of range", mult)
	}
	return e.Store.WithGame(ctx, p.GameID, func(g *Game) (*Game, error) {
		if !actionable(g, p) {
			return nil, nil
		}
		g.recordLabel(p.Player, name)
		amount := g.Buyin * mult
		g.CurrentBet += amount
		g.Bets[p.Player] = g.CurrentBet
		msg := fmt.Sprintf("%s raises %d, bringing the total bet to %d %s.",
			g.LabelFor(p.Player), amount, g.CurrentBet, Leagues[g.League].Units)
		if err := e.advance(ctx, g, msg); err != nil {
			return nil, err
		}
		return g, nil
	})
}

// HandleFold removes the player from the hand for good.
func (e *Engine) HandleFold(ctx context.Context, name string, p chat.ActionPayload) error {
	return e.Store.WithGame(ctx, p.GameID, func(g *Game) (*Game, error) {
		if !actionable(g, p) {
			return nil, nil
		}
		g.recordLabel(p.Player, name)
		g.Folded = append(g.Folded, p.Player)
		msg := fmt.Sprintf("%s folds.", g.LabelFor(p.Player))
		if err := e.advance(ctx, g, msg); err != nil {
			return nil, err
		}
		return g, nil
	})
}

// HandleResend re-issues the bet prompt to the current player. Only the
// player whose action is pending may ask; nothing is mutated.
func (e *Engine) HandleResend(ctx context.Context, userID string, p chat.ActionPayload) error {
	return e.Store.WithGame(ctx, p.GameID, func(g *Game) (*Game, error) {
		if g == nil || g.Status != StatusInProgress || g.CurrentPlayer == "" {
			return nil, nil
		}
		if g.Handles[g.CurrentPlayer] != userID {
			return nil, nil
		}
		payload := chat.ActionPayload{GameID: g.ID(), Player: g.CurrentPlayer, ThreadTS: g.ThreadTS}
		if err := e.Chat.PostEphemeral(ctx, chat.Message{
			Channel:  g.Channel,
			ThreadTS: g.ThreadTS,
			User:     userID,
			Text:     "Your bet",
			Blocks:   e.betBlocks(g, payload),
		}); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// ----- helpers -----

func (e *Engine) combinedCardsURL(cs []engine.Card) string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = fmt.Sprintf("%d", int(c))
	}
	return fmt.Sprintf("https://%s/combined-cards.png?cards=%s", e.SiteURL, strings.Join(ids, ","))
}

func (e *Engine) cardURL(c engine.Card) string {
	return fmt.Sprintf("https://%s/static/%s", e.SiteURL, c.ImageName())
}

func isWinner(winners []string, player string) bool {
	for _, w := range winners {
		if w == player {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
