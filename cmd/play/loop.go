package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"minigame-arcade/play"
	"minigame-arcade/workers"
)

// runSession reads one command per line until EOF or "q". It returns the
// receipt of the last queued score, if any.
func runSession(sess *play.Session, in io.Reader, out io.Writer) (*workers.Receipt, error) {
	var last *workers.Receipt
	snap := sess.Snapshot()
	fmt.Fprintf(out, "🎮 %s (score %d)\n", snap.Variant, snap.Score)
	printPrompt(out, snap)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			return last, nil
		case "r", "reset":
			printPrompt(out, sess.Reset())
			continue
		}

		move, err := parseMove(snap.Variant, line)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}

		res := sess.ApplyMove(move)
		snap = res.Snapshot
		if !res.Accepted {
			fmt.Fprintln(out, "  that move is not allowed")
			printPrompt(out, snap)
			continue
		}
		if res.Outcome != nil {
			printOutcome(out, res)
			if res.Receipt != nil {
				last = res.Receipt
			}
		}
		printPrompt(out, snap)
	}
	return last, scanner.Err()
}

func parseMove(variant, line string) (play.Move, error) {
	switch variant {
	case play.NumberGuessName:
		return play.ParseGuess(line)
	case play.TicTacToeName:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > 9 {
			return nil, errors.New("pick a cell from 1 to 9")
		}
		return play.Cell(n - 1), nil
	default:
		return nil, fmt.Errorf("%w: %q", play.ErrUnknownVariant, variant)
	}
}

func printOutcome(out io.Writer, res play.MoveResult) {
	switch final := res.Final.(type) {
	case play.NumberGuessState:
		fmt.Fprintf(out, "  your guess %d, the number was %d: +%d points\n",
			final.LastGuess, final.Target, res.Outcome.PointsEarned)
	case play.TicTacToeState:
		fmt.Fprintln(out, final.Board.String())
		switch final.Status {
		case play.PlayerWin:
			fmt.Fprintf(out, "  You win! +%d points. Level %d (%s)\n", res.Outcome.PointsEarned, res.Level, res.Difficulty)
		case play.OpponentWin:
			fmt.Fprintln(out, "  You lost the game! Type r to reset.")
		case play.Draw:
			fmt.Fprintln(out, "  Draw. Type r to reset.")
		}
	}
	fmt.Fprintf(out, "  Total score: %d\n", res.Score)
}

func printPrompt(out io.Writer, snap play.Snapshot) {
	switch st := snap.State.(type) {
	case play.NumberGuessState:
		fmt.Fprintf(out, "guess a number between %d and %d (q to quit)\n> ", st.Min, st.Max)
	case play.TicTacToeState:
		if !st.Terminal() {
			fmt.Fprintf(out, "%s\npick a cell 1-9 (r reset, q quit)\n> ", st.Board.String())
		} else {
			fmt.Fprint(out, "> ")
		}
	}
}
