// Command signer runs one signer process: it loads its long-term DKG
// bundle from --key-file, signs up for a signing room, and runs the
// nine-round signing engine (C6) against the coordinator named by
// --config's manager_url.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/aerius-tss/gg18-signer/internal/config"
	"github.com/aerius-tss/gg18-signer/internal/keygen"
	"github.com/aerius-tss/gg18-signer/internal/logging"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/signing"
)

func main() {
	configPath := flag.String("config", "", "path to signer config file")
	keyFile := flag.String("key-file", "", "path to this party's long-term DKG bundle")
	message := flag.String("message", "", "message to sign")
	roomSize := flag.Int("room-size", 0, "signing room size (t+1); defaults to config threshold+1")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := logging.Init(*logLevel, false); err != nil {
		fmt.Fprintln(os.Stderr, "signer: failed to init logging:", err)
		os.Exit(1)
	}
	logger := logging.Named("signer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorw("failed to load config", "error", err)
		os.Exit(1)
	}
	if *keyFile == "" {
		logger.Errorw("--key-file is required")
		os.Exit(1)
	}
	size := *roomSize
	if size == 0 {
		size = cfg.Threshold + 1
	}

	raw, err := os.ReadFile(*keyFile)
	if err != nil {
		logger.Errorw("failed to read key file", "error", err)
		os.Exit(1)
	}
	var bundle keygen.Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		logger.Errorw("failed to parse key file", "error", err)
		os.Exit(1)
	}

	managerAddr := fmt.Sprintf("http://%s:%d", cfg.ManagerURL, cfg.ManagerPort)
	digest := sha256.Sum256([]byte(*message))

	order, roomUUID, err := signupSign(managerAddr, fmt.Sprintf("%x", digest), bundle.PartyKeys.Index, uuid.NewString(), size)
	if err != nil {
		logger.Errorw("signup_sign failed", "error", err)
		os.Exit(1)
	}

	transport := relay.NewHTTPTransport(managerAddr)
	engine := signing.NewEngine(transport, roomUUID, signing.Params{
		RegistryOrdinal: order,
		RoomSize:        size,
		Bundle:          &bundle,
		Message:         digest[:],
		Path:            cfg.Path,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.SignupTimeoutSecs)*time.Second*4)
	defer cancel()
	result, err := engine.Run(ctx)
	if err != nil {
		logger.Errorw("signing failed", "error", err)
		os.Exit(1)
	}
	logger.Infow("signing complete", "r", result.R.Text(16), "s", result.S.Text(16), "recid", result.RecoveryID)
}

type signupSignRequest struct {
	RoomID      string `json:"room_id"`
	PartyNumber int    `json:"party_number"`
	PartyUUID   string `json:"party_uuid"`
	Size        int    `json:"size"`
}

type signupSignResponse struct {
	PartyOrder int    `json:"party_order"`
	RoomUUID   string `json:"room_uuid"`
}

func signupSign(managerAddr, roomID string, partyNumber int, partyUUID string, size int) (int, string, error) {
	body, _ := json.Marshal(signupSignRequest{RoomID: roomID, PartyNumber: partyNumber, PartyUUID: partyUUID, Size: size})
	resp, err := http.Post(managerAddr+"/signupsign", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	var out signupSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, "", err
	}
	return out.PartyOrder, out.RoomUUID, nil
}
