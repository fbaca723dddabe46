package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/pkg/core"
)

var errUnknownCommand = errors.New("unknown command")

type commander interface {
	Order(id int, target core.Hex) error
	Status() engine.Status
}

type chatter interface {
	Say(text string) error
}

// runCommands reads player commands line by line until in ends or ctx is cancelled.
func runCommands(ctx context.Context, in io.Reader, out io.Writer, eng commander, chat chatter) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := execute(line, eng, chat)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
	}
	return scanner.Err()
}

func execute(line string, eng commander, chat chatter) (string, error) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "move":
		fields := strings.Fields(rest)
		if len(fields) != 3 {
			return "", errors.New("usage: move <id> <row> <col>")
		}
		var nums [3]int
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return "", fmt.Errorf("invalid number %q", f)
			}
			nums[i] = n
		}
		target := core.Hex{Row: nums[1], Col: nums[2]}
		if err := eng.Order(nums[0], target); err != nil {
			return "", err
		}
		return fmt.Sprintf("unit %d ordered to %s", nums[0], target), nil

	case "say":
		if rest == "" {
			return "", errors.New("usage: say <text>")
		}
		return "", chat.Say(rest)

	case "status":
		return formatStatus(eng.Status()), nil

	default:
		return "", fmt.Errorf("%w %q", errUnknownCommand, verb)
	}
}

func formatStatus(st engine.Status) string {
	var b strings.Builder
	minutes := int(st.GameMinutes)
	fmt.Fprintf(&b, "%s", st.Side)
	if st.Authority {
		b.WriteString(" (authority)")
	}
	fmt.Fprintf(&b, " day %d %02d:%02d seq=%d", minutes/1440+1, minutes%1440/60, minutes%60, st.Sequence)

	sides := make([]string, 0, len(st.Alive))
	for side := range st.Alive {
		sides = append(sides, string(side))
	}
	sort.Strings(sides)
	for _, side := range sides {
		fmt.Fprintf(&b, " %s=%d", side, st.Alive[core.Side(side)])
	}
	fmt.Fprintf(&b, " moving=%d visibleEnemies=%d", st.Pending, st.VisibleEnemies)
	if st.GameOver {
		if st.Winner != "" {
			fmt.Fprintf(&b, " winner=%s", st.Winner)
		} else {
			b.WriteString(" aborted")
		}
	}
	return b.String()
}
