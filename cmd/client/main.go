// Command client is the interactive rider client: it logs in, then reads
// ride commands from stdin and prints the controller's replies until it
// terminates its session or the controller broadcasts a shutdown.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
)

var (
	flagName       string
	flagServerPipe string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "client",
	Short: "Interactive rider client for the dispatch controller",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagName, "name", "", "username to log in with (required)")
	rootCmd.Flags().StringVar(&flagServerPipe, "server-pipe", config.DefaultServerPipe, "path to the controller's inbound endpoint")
	rootCmd.MarkFlagRequired("name")
}

func run(cmd *cobra.Command, args []string) error {
	pid := int32(os.Getpid())
	replyPath := config.ClientPipePath(pid)

	if err := ipc.EnsureFIFO(replyPath); err != nil {
		return fmt.Errorf("create reply endpoint: %w", err)
	}
	defer ipc.RemoveFIFO(replyPath)

	replyFile, err := ipc.OpenReadWrite(replyPath)
	if err != nil {
		return fmt.Errorf("open reply endpoint: %w", err)
	}
	defer replyFile.Close()

	replies := make(chan wire.Reply, 8)
	go readReplies(replyFile, replies)

	serverFile, err := ipc.OpenWriteOnly(flagServerPipe)
	if err != nil {
		return fmt.Errorf("connect to controller at %s: %w (is it running?)", flagServerPipe, err)
	}
	defer serverFile.Close()

	send := func(t wire.RequestType, data string) error {
		req := wire.Request{ClientPID: pid, ClientName: flagName, Type: t, Data: data}
		b, err := wire.EncodeRequest(req)
		if err != nil {
			return err
		}
		_, err = serverFile.Write(b)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	if err := send(wire.Login, ""); err != nil {
		return fmt.Errorf("send login: %w", err)
	}

	fmt.Println("A aguardar resposta do servidor...")
	var loginReply wire.Reply
	select {
	case r, ok := <-replies:
		if !ok {
			return fmt.Errorf("controller closed the connection before replying to login")
		}
		loginReply = r
	case <-sigCh:
		return nil
	}
	fmt.Println(loginReply.Message)
	if !loginReply.Success {
		return nil
	}

	fmt.Println("Comandos: agendar <hora> <local> <distancia> | cancelar <id|0> | consultar | terminar")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	pendingExit := false
	for {
		select {
		case <-sigCh:
			_ = send(wire.Terminate, "")
			waitForExitReply(replies)
			return nil

		case r, ok := <-replies:
			if !ok {
				return nil
			}
			if r.Message == wire.ShutdownMessage {
				fmt.Println("O servidor encerrou a sessão.")
				return nil
			}
			fmt.Println(r.Message)
			if pendingExit {
				return nil
			}

		case line, ok := <-lines:
			if !ok {
				_ = send(wire.Terminate, "")
				waitForExitReply(replies)
				return nil
			}
			cmdName, rest := splitCommand(line)
			switch cmdName {
			case "":
				continue
			case "agendar":
				if err := send(wire.Ride, rest); err != nil {
					return err
				}
			case "cancelar":
				if rest == "" {
					fmt.Println("Uso: cancelar <id|0>")
					continue
				}
				if err := send(wire.Cancel, rest); err != nil {
					return err
				}
			case "consultar":
				if err := send(wire.Consult, ""); err != nil {
					return err
				}
			case "terminar":
				if err := send(wire.Terminate, ""); err != nil {
					return err
				}
				pendingExit = true
			default:
				fmt.Println("Comando desconhecido. Use: agendar, cancelar, consultar, terminar")
			}
		}
	}
}

func waitForExitReply(replies <-chan wire.Reply) {
	select {
	case r, ok := <-replies:
		if ok {
			fmt.Println(r.Message)
		}
	case <-time.After(2 * time.Second):
	}
}

func splitCommand(line string) (cmdName, rest string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func readReplies(f *os.File, out chan<- wire.Reply) {
	buf := make([]byte, wire.ReplySize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			close(out)
			return
		}
		reply, err := wire.DecodeReply(buf)
		if err != nil {
			continue
		}
		out <- reply
	}
}
