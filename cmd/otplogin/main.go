// Command otplogin runs the OTP login handshake against a console API and
// prints the resulting session token.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/modem-console/internal/client/authflow"
	"github.com/modem-console/internal/client/httpclient"
	"github.com/modem-console/internal/config"
	"github.com/modem-console/internal/domain"
	"github.com/modem-console/internal/modemdisplay"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClient()

	server := flag.String("server", cfg.ServerURL, "API base URL")
	signal := flag.Float64("signal", -1, "after login, classify this signal quality through /modem/display")
	state := flag.String("state", "", "registration state sent with -signal")
	region := flag.String("region", "", "region code sent with -signal")
	flag.Parse()

	ctx := context.Background()
	flow := authflow.New(httpclient.New(*server, httpclient.WithTimeout(cfg.Timeout)))

	req, err := flow.QueryOTPRequirement(ctx)
	if err != nil {
		log.Fatalf("otp requirement: %v", explain(err))
	}

	var payload domain.OTPVerifyPayload
	if req.Required {
		if err := flow.RequestOTPDispatch(ctx); err != nil {
			log.Fatalf("otp dispatch: %v", explain(err))
		}
		fmt.Fprint(os.Stderr, "Enter the code sent to your phone: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			log.Fatalf("read code: %v", err)
		}
		payload.Code = strings.TrimSpace(line)
	}

	res, err := flow.VerifyOTP(ctx, payload)
	if err != nil {
		log.Fatalf("otp verify: %v", explain(err))
	}
	if !res.Verified {
		log.Fatalf("login rejected: %s", res.Reason)
	}
	fmt.Println(res.Token)

	if *signal < 0 {
		return
	}
	var d modemdisplay.Display
	authed := httpclient.New(*server, httpclient.WithTimeout(cfg.Timeout), httpclient.WithBearerToken(res.Token))
	err = authed.Request(ctx, "modem/display", httpclient.Options{
		Method: http.MethodPost,
		Body:   modemdisplay.Telemetry{SignalQuality: *signal, RegistrationState: *state, RegionCode: *region},
	}, &d)
	if err != nil {
		log.Fatalf("modem display: %v", explain(err))
	}
	fmt.Fprintf(os.Stderr, "signal %s icon=%s tone=%s registration=%q flag=%q\n",
		d.SignalText, d.SignalIcon, d.EffectiveSignalTone(), d.RegistrationLabel, d.FlagClass)
}

func explain(err error) error {
	if errors.Is(err, httpclient.ErrTransport) {
		return fmt.Errorf("server unreachable: %w", err)
	}
	return err
}
