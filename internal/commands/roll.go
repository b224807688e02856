package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/botcmd/pkg/cmd"
)

func rollCommand(d *Deps) *cmd.Command {
	return &cmd.Command{
		Description: "Roll dice with crazy formulas like `2d6+1d4*2`",
		Aliases:     []string{"dice", "r"},
		Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
			return c.Replyf(ctx, "🎲 You rolled **%d** (d6).", d.intN(6)+1)
		}),
		Any: &cmd.Command{
			Description: "Roll a formula such as `2d6+1d4*2-3`.",
			Usage:       "<formula>",
			Rest:        true,
			Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
				formula := strings.ReplaceAll(c.String(0), " ", "")
				total, pretty, err := evaluateFormula(formula, d.intN)
				if err != nil {
					return c.Reply(ctx, err.Error())
				}
				return c.Replyf(ctx, "🎲 **Dice Roll**\n**User Input**:\t`%s`\n**Calculation**:\t%s\n**Result**:\t**%d**", formula, pretty, total)
			}),
		},
	}
}

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps   = map[string]bool{"+": true, "-": true, "*": true, "/": true}
)

type term struct {
	value int
	desc  string
	op    string
}

// rollError is shown to the caller verbatim.
type rollError string

func (e rollError) Error() string { return string(e) }

// evaluateFormula rolls every dice term and applies * and / before + and -.
func evaluateFormula(formula string, intN func(int) int) (int, string, error) {
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return 0, "", rollError("Can't parse your formula. Try something like `2d6+1d4*2-3`")
	}

	var terms []term
	currentOp := "+"
	expectOperand := true
	for _, token := range tokens {
		if validOps[token] {
			if expectOperand {
				return 0, "", rollError("Syntax error: operator without left operand")
			}
			currentOp = token
			expectOperand = true
			continue
		}
		val, desc, err := evaluateToken(token, intN)
		if err != nil {
			return 0, "", rollError(fmt.Sprintf("Failed to evaluate `%s`: %v", token, err))
		}
		terms = append(terms, term{value: val, desc: desc, op: currentOp})
		expectOperand = false
	}
	if expectOperand {
		return 0, "", rollError("Syntax error: formula ends with an operator")
	}

	// * and / first
	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		prev := merged[len(merged)-1]
		merged = merged[:len(merged)-1]

		var newVal int
		switch t.op {
		case "*":
			newVal = prev.value * t.value
		case "/":
			if t.value == 0 {
				return 0, "", rollError("Division by zero is forbidden. Even in games.")
			}
			newVal = prev.value / t.value
		}
		merged = append(merged, term{
			value: newVal,
			desc:  fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc),
			op:    prev.op,
		})
	}

	// + and -
	total := 0
	var details []string
	for _, t := range merged {
		if len(details) > 0 {
			details = append(details, fmt.Sprintf(" %s ", t.op))
		}
		details = append(details, t.desc)
		if t.op == "-" {
			total -= t.value
		} else {
			total += t.value
		}
	}
	return total, strings.Join(details, ""), nil
}

func evaluateToken(token string, intN func(int) int) (int, string, error) {
	if matches := diceRegex.FindStringSubmatch(token); matches != nil {
		count := 1
		if matches[1] != "" {
			n, err := strconv.Atoi(matches[1])
			if err != nil || n < 1 {
				return 0, "", errors.New("invalid dice count")
			}
			count = n
		}

		sides, err := strconv.Atoi(matches[2])
		if err != nil || sides < 2 {
			return 0, "", errors.New("invalid dice sides")
		}
		if count > 100 || sides > 1000 {
			return 0, "", errors.New("too big. max 100 dice, 1000 sides")
		}

		var sum int
		rolls := make([]string, 0, count)
		for i := 0; i < count; i++ {
			r := intN(sides) + 1
			sum += r
			rolls = append(rolls, strconv.Itoa(r))
		}
		return sum, fmt.Sprintf("`%s` [%s]", token, strings.Join(rolls, ", ")), nil
	}

	// plain number
	num, err := strconv.Atoi(token)
	if err != nil {
		return 0, "", errors.New("not a number or dice")
	}
	return num, fmt.Sprintf("`%d`", num), nil
}
