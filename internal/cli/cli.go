package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"pinbank/internal/domain"
	"pinbank/internal/service"
)

// CLI is the interactive prompt surface. It only parses input, delegates to
// the services and prints results; every rule lives in the service layer.
type CLI struct {
	ledger *service.Ledger
	admin  *service.Admin
	in     *bufio.Scanner
	out    io.Writer
}

func New(ledger *service.Ledger, admin *service.Admin, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		ledger: ledger,
		admin:  admin,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run drives the top-level menu until the user quits or input ends.
func (c *CLI) Run() error {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1) Create account")
		fmt.Fprintln(c.out, "2) Log in")
		fmt.Fprintln(c.out, "3) Admin")
		fmt.Fprintln(c.out, "q) Quit")

		switch c.prompt("> ") {
		case "1":
			c.createAccount()
		case "2":
			c.login()
		case "3":
			c.adminMenu()
		case "q", "":
			return nil
		default:
			fmt.Fprintln(c.out, "unknown choice")
		}
	}
}

func (c *CLI) createAccount() {
	name := c.prompt("Owner name: ")
	pin := c.prompt("PIN (4-6 digits): ")
	amount, err := c.promptAmount("Initial deposit (0 for none): ")
	if err != nil {
		fmt.Fprintln(c.out, "invalid amount")
		return
	}

	acct, err := c.ledger.CreateAccount(name, pin, amount)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Account created. Your account number is %s\n", acct.ID)
}

func (c *CLI) login() {
	id := c.prompt("Account number: ")
	pin := c.prompt("PIN: ")

	acct, err := c.ledger.Authenticate(id, pin)
	if err != nil {
		fmt.Fprintln(c.out, "login failed")
		return
	}
	fmt.Fprintf(c.out, "Welcome, %s\n", acct.OwnerName)
	c.sessionMenu(acct.ID)
}

func (c *CLI) sessionMenu(accountID string) {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1) Balance")
		fmt.Fprintln(c.out, "2) Deposit")
		fmt.Fprintln(c.out, "3) Withdraw")
		fmt.Fprintln(c.out, "4) Transfer")
		fmt.Fprintln(c.out, "5) History")
		fmt.Fprintln(c.out, "6) Close account")
		fmt.Fprintln(c.out, "b) Log out")

		switch c.prompt("> ") {
		case "1":
			acct, err := c.ledger.GetAccount(accountID)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				return
			}
			fmt.Fprintf(c.out, "Balance: %s\n", acct.Balance)
		case "2":
			amount, err := c.promptAmount("Amount: ")
			if err != nil {
				fmt.Fprintln(c.out, "invalid amount")
				continue
			}
			if acct, err := c.ledger.Deposit(accountID, amount); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			} else {
				fmt.Fprintf(c.out, "New balance: %s\n", acct.Balance)
			}
		case "3":
			amount, err := c.promptAmount("Amount: ")
			if err != nil {
				fmt.Fprintln(c.out, "invalid amount")
				continue
			}
			if acct, err := c.ledger.Withdraw(accountID, amount); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			} else {
				fmt.Fprintf(c.out, "New balance: %s\n", acct.Balance)
			}
		case "4":
			dest := c.prompt("Destination account: ")
			amount, err := c.promptAmount("Amount: ")
			if err != nil {
				fmt.Fprintln(c.out, "invalid amount")
				continue
			}
			if err := c.ledger.Transfer(accountID, dest, amount); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			} else {
				fmt.Fprintln(c.out, "Transfer completed")
			}
		case "5":
			c.printHistory(accountID)
		case "6":
			if c.prompt("Close this account? (yes/no): ") != "yes" {
				continue
			}
			if err := c.ledger.CloseAccount(accountID); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, "Account closed")
			return
		case "b", "":
			return
		default:
			fmt.Fprintln(c.out, "unknown choice")
		}
	}
}

func (c *CLI) printHistory(accountID string) {
	entries, err := c.ledger.GetEntries(accountID)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "no transactions")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "%s  %-12s  %10s  balance %10s  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.Amount, e.BalanceAfter, e.Description)
	}
}

func (c *CLI) adminMenu() {
	secret := c.prompt("Admin secret: ")
	if err := c.admin.Authorize(secret); err != nil {
		fmt.Fprintln(c.out, "access denied")
		return
	}

	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1) List accounts")
		fmt.Fprintln(c.out, "2) Inspect account")
		fmt.Fprintln(c.out, "3) Backup")
		fmt.Fprintln(c.out, "4) Restore")
		fmt.Fprintln(c.out, "5) Force-close account")
		fmt.Fprintln(c.out, "b) Back")

		switch c.prompt("admin> ") {
		case "1":
			summaries, err := c.admin.ListAccounts(secret)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			for _, s := range summaries {
				fmt.Fprintf(c.out, "%s  %-20s  balance %10s  %d entries\n", s.ID, s.OwnerName, s.Balance, s.EntryCount)
			}
		case "2":
			id := c.prompt("Account number: ")
			acct, err := c.admin.InspectAccount(secret, id)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			c.printAccount(acct)
		case "3":
			name, err := c.admin.Backup(secret)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(c.out, "Backup written: %s\n", name)
		case "4":
			name := c.prompt("Backup file name: ")
			if err := c.admin.Restore(secret, name); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, "Store restored")
		case "5":
			id := c.prompt("Account number: ")
			if c.prompt("Force-close and forfeit remaining funds? (yes/no): ") != "yes" {
				continue
			}
			if err := c.admin.CloseAccount(secret, id); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, "Account closed")
		case "b", "":
			return
		default:
			fmt.Fprintln(c.out, "unknown choice")
		}
	}
}

func (c *CLI) printAccount(acct *domain.Account) {
	raw, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, string(raw))
}

func (c *CLI) prompt(label string) string {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *CLI) promptAmount(label string) (decimal.Decimal, error) {
	return decimal.NewFromString(c.prompt(label))
}
