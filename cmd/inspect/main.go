// Command inspect dumps the stored conversations of a Badger directory as
// a table. It opens the database read-only, so it can run next to the
// server.
package main

import (
	"chat-dm/repositories"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// INSPECT_USER keeps only conversations involving this identity
	User string `envconfig:"INSPECT_USER"`
	// INSPECT_COLOURS colours the header and the attachment rows
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
	Limit   int  `envconfig:"INSPECT_LIMIT" default:"0"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Conversation", "Time", "Seq", "From", "To", "Body"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	var attachments int64
	err = repositories.ScanMessages(db, func(key string, message repositories.DiskMessage) error {
		if config.User != "" && string(message.Sender) != config.User && string(message.Recipient) != config.User {
			return nil
		}
		if config.Limit > 0 && rows >= config.Limit {
			return nil
		}
		rows++

		body := ""
		if message.Content != nil {
			body = *message.Content
		}
		if message.Attachment != nil {
			attachments += message.Attachment.SizeBytes
			body = fmt.Sprintf("[%s %s, %s]", message.Attachment.OriginalName,
				message.Attachment.MimeType, humanize.IBytes(uint64(message.Attachment.SizeBytes)))
			if config.Colours {
				body = color.FgCyan.Render(body)
			}
		}
		table.Append([]string{
			conversationOf(key),
			message.At.Local().Format(time.DateTime),
			fmt.Sprint(message.Seq),
			string(message.Sender),
			string(message.Recipient),
			body,
		})
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	header := fmt.Sprintf("  ====== %s messages, %s of attachments ======", humanize.Comma(int64(rows)), humanize.IBytes(uint64(attachments)))
	if config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)
	table.Render()
}

// conversationOf decodes the identity pair of a message key.
func conversationOf(key string) string {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) < 3 {
		return key
	}
	low, errLow := base64.RawURLEncoding.DecodeString(parts[1])
	high, errHigh := base64.RawURLEncoding.DecodeString(parts[2])
	if errLow != nil || errHigh != nil {
		return parts[1] + ":" + parts[2]
	}
	return string(low) + " <-> " + string(high)
}
