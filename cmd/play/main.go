// Command play runs a terminal game against the bot.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/engine"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/game"
)

func main() {
	difficultyFlag := flag.String("difficulty", "medium", "bot difficulty: easy, medium, hard, expert, insane")
	secondFlag := flag.Bool("second", false, "let the bot move first")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	difficulty := bot.ParseDifficulty(*difficultyFlag)
	bots := bot.NewService(engine.NewWithOptions(engine.Options{Timeout: 10 * time.Second}))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "connect4> ",
		HistoryFile:     "/tmp/connect4_history.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start terminal:", err)
		os.Exit(1)
	}
	defer rl.Close()

	human := domain.Player1
	if *secondFlag {
		human = domain.Player2
	}

	fmt.Printf("Playing against %s (%s). You are %s. Enter a column 0-6, or q to quit.\n\n",
		difficulty.BotName(), difficulty, mark(human))

	g := game.NewGame()
	printBoard(g)

	for !g.IsFinished() {
		if g.CurrentPlayer == human {
			if !humanTurn(rl, g, human) {
				return
			}
		} else {
			botTurn(bots, g, difficulty)
		}
		printBoard(g)
	}

	switch {
	case g.Status == domain.StatusDraw:
		fmt.Println("Draw.")
	case g.Winner == human:
		fmt.Println("You win!")
	default:
		fmt.Printf("%s wins.\n", difficulty.BotName())
	}
}

func humanTurn(rl *readline.Instance, g *game.Game, human domain.PlayerID) bool {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return false
		}
		line = strings.TrimSpace(line)
		if line == "q" || line == "quit" || line == "exit" {
			return false
		}
		col, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("enter a column number 0-6")
			continue
		}
		if _, err := g.MakeMove(human, col); err != nil {
			if errors.Is(err, domain.ErrColumnFull) {
				fmt.Println("that column is full")
			} else {
				fmt.Println("invalid move")
			}
			continue
		}
		return true
	}
}

func botTurn(bots *bot.Service, g *game.Game, difficulty bot.Difficulty) {
	col := bots.ChooseMove(g.Board, difficulty)
	if col == engine.NoMove {
		return
	}
	g.MakeMove(g.CurrentPlayer, col)
	fmt.Printf("%s plays column %d\n", difficulty.BotName(), col)
}

func mark(p domain.PlayerID) string {
	if p == domain.Player1 {
		return "X"
	}
	return "O"
}

func printBoard(g *game.Game) {
	grid := g.Grid()
	var sb strings.Builder
	for _, row := range grid {
		for _, cell := range row {
			switch cell {
			case domain.Player1:
				sb.WriteString(" X")
			case domain.Player2:
				sb.WriteString(" O")
			default:
				sb.WriteString(" .")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(" 0 1 2 3 4 5 6\n")
	fmt.Print(sb.String())
}
