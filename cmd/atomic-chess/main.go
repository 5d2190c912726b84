package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/park285/atomic-chess-arena/internal/atomic"
	"github.com/park285/atomic-chess-arena/internal/msgcat"
	"github.com/park285/atomic-chess-arena/internal/render"
)

// Console two-player game. Both players share the terminal and enter
// moves as square pairs.
func main() {
	catalog, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
	if err != nil {
		log.Fatalf("load messages: %v", err)
	}

	in := bufio.NewScanner(os.Stdin)

	fmt.Println(catalog.RenderOr("console.welcome", nil, "Welcome to Atomic Chess!"))
	fmt.Println()
	fmt.Println(catalog.RenderOr("console.rules", nil, ""))
	fmt.Println()
	fmt.Println(catalog.RenderOr("console.howto", nil, ""))
	fmt.Println()

	answer, ok := prompt(in, catalog.RenderOr("console.prompt_play", nil, "Type any key to play or 'q' to quit: "))
	for ok && !strings.EqualFold(strings.TrimSpace(answer), "q") {
		runGame(catalog, in)
		answer, ok = prompt(in, catalog.RenderOr("console.prompt_again", nil, "Type any key to play again or 'q' to quit: "))
	}

	fmt.Println()
	fmt.Println(catalog.RenderOr("console.goodbye", nil, "Thanks for playing!"))
}

func runGame(catalog *msgcat.Catalog, in *bufio.Scanner) {
	g := atomic.NewGame()
	fmt.Println(render.Text(g))

	for {
		fmt.Println(catalog.RenderOr("game.turn", map[string]string{"Color": strings.ToUpper(g.Turn().String())}, ""))

		fromRaw, ok := prompt(in, catalog.RenderOr("console.prompt_from", nil, "From: "))
		if !ok {
			return
		}
		toRaw, ok := prompt(in, catalog.RenderOr("console.prompt_to", nil, "To: "))
		if !ok {
			return
		}

		from, err := atomic.ParseSquare(fromRaw)
		if err != nil {
			rejectMessage(catalog, err, fromRaw, toRaw)
			continue
		}
		to, err := atomic.ParseSquare(toRaw)
		if err != nil {
			rejectMessage(catalog, err, fromRaw, toRaw)
			continue
		}

		if err := g.ApplyMove(from, to); err != nil {
			rejectMessage(catalog, err, from.String(), to.String())
			continue
		}

		fmt.Println()
		fmt.Println(render.Text(g))

		if winner, decided := g.Result().Winner(); decided {
			fmt.Println(catalog.RenderOr("game.won", map[string]string{"Color": strings.ToUpper(winner.String())}, ""))
			return
		}
	}
}

func rejectMessage(catalog *msgcat.Catalog, err error, from, to string) {
	code := atomic.ReasonCode(err)
	data := map[string]string{"From": from, "To": to}
	fmt.Println(catalog.RenderOr("rejected."+code, data, err.Error()))
	fmt.Println()
}

func prompt(in *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !in.Scan() {
		return "", false
	}
	return in.Text(), true
}
