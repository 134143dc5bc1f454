// Command ltvctl runs the control-time sliding process over a certificate
// chain supplied on disk and prints the resulting conclusion and report.
package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dssgo/ltv/certvalidator/ltv"
	"github.com/dssgo/ltv/certvalidator/ltv/reportxml"
	"github.com/dssgo/ltv/config"
	"github.com/dssgo/ltv/keys"
)

var (
	version = "dev"

	chainFiles []string
	crlFiles   []string
	policyPath string
	asOf       string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "ltvctl",
		Short:   "Control-time sliding over a certificate chain",
		Version: version,
	}
	root.AddCommand(newSlideCommand())
	return root
}

func newSlideCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slide",
		Short: "Run control-time sliding over a certificate chain, trust anchor last",
		RunE:  runSlide,
	}
	cmd.Flags().StringSliceVar(&chainFiles, "cert", nil, "certificate file, repeatable; first is the signing certificate, last the trust anchor")
	cmd.Flags().StringSliceVar(&crlFiles, "crl", nil, "CRL file providing revocation status for the chain, repeatable")
	cmd.Flags().StringVar(&policyPath, "policy", "", "validation policy YAML file (defaults to the built-in policy)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "validation time in RFC3339 (defaults to now)")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}

func runSlide(cmd *cobra.Command, _ []string) error {
	if len(chainFiles) < 2 {
		return fmt.Errorf("at least two --cert flags are required: the signing certificate and a trust anchor")
	}

	certs, err := keys.LoadCertsFromPemDerFiles(chainFiles)
	if err != nil {
		return fmt.Errorf("loading certificate chain: %w", err)
	}

	path := ltv.NewValidationPath(certs[len(certs)-1])
	for _, c := range certs[1 : len(certs)-1] {
		path.AddIntermediate(c)
	}
	path.SetEECert(certs[0])

	ctx := ltv.NewTimeSlideContext(ltv.NewPOEManager())
	for i, crlFile := range crlFiles {
		data, err := os.ReadFile(crlFile)
		if err != nil {
			return fmt.Errorf("reading CRL %s: %w", crlFile, err)
		}
		crl, err := parseCRL(data)
		if err != nil {
			return fmt.Errorf("parsing CRL %s: %w", crlFile, err)
		}
		issuer := certs[len(certs)-1]
		if i < len(certs)-1 {
			issuer = certs[i+1]
		}
		ctx.AddCRL(crl, issuer)

		subject := certs[i]
		hash := sha256.Sum256([]byte(ltv.CertificateID(subject)))
		ctx.POEManager.Add(&ltv.ProofOfExistence{
			DataHash: hash[:],
			Time:     crl.ThisUpdate,
			Type:     ltv.POETypeCRL,
		})
	}

	policy := config.DefaultValidationPolicy()
	if policyPath != "" {
		policy, err = config.LoadValidationPolicy(policyPath)
		if err != nil {
			return fmt.Errorf("loading validation policy: %w", err)
		}
	}

	now := time.Now().UTC()
	if asOf != "" {
		now, err = time.Parse(time.RFC3339, asOf)
		if err != nil {
			return fmt.Errorf("parsing --as-of: %w", err)
		}
	}

	expirations := make(map[string]time.Time, len(policy.AlgorithmExpirations))
	for _, e := range policy.AlgorithmExpirations {
		expirations[e.Algorithm] = e.ExpiresOn
	}

	conclusion := ltv.RunControlTimeSliding(path, ctx, now, expirations)

	fmt.Fprintf(cmd.OutOrStdout(), "indication: %s\n", conclusion.Indication)
	if conclusion.SubIndication != ltv.SubIndicationNone {
		fmt.Fprintf(cmd.OutOrStdout(), "sub-indication: %s\n", conclusion.SubIndication)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "control-time: %s\n\n", conclusion.ControlTime.Format(time.RFC3339))

	xmlOut, err := reportxml.WriteToString(conclusion.Trace)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), xmlOut)

	return nil
}

func parseCRL(data []byte) (*x509.RevocationList, error) {
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	return x509.ParseRevocationList(data)
}
