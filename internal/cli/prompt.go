package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

// confirm спрашивает оператора перед необратимым действием. С --yes вопрос
// не задаётся; без терминала и без --yes действие не выполняется.
func (r *runner) confirm(question string) (bool, error) {
	if r.yes {
		return true, nil
	}
	if !r.opts.IsTerminal() {
		return false, errNeedsConfirmation
	}
	answer, err := r.ask(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// askMonths спрашивает число месяцев продления, 0 допустим.
func (r *runner) askMonths(question string) (int, error) {
	answer, err := r.ask(question)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 {
		return 0, validation.Errors{"Months must be a whole number, 0 or more"}
	}
	return n, nil
}

func (r *runner) ask(question string) (string, error) {
	const op = "cli.ask"
	if _, err := fmt.Fprint(r.opts.Out, question); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if r.reader == nil {
		r.reader = bufio.NewReader(r.opts.In)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(line), nil
}

// parseID разбирает идентификатор записи из аргумента команды.
func parseID(raw, entity string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, validation.Errors{fmt.Sprintf("Invalid %s ID: %q", entity, raw)}
	}
	return id, nil
}

// optional возвращает значение флага, только если оператор его указал.
func optional(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
