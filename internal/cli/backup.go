package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/backup"
)

type BackupOptions struct {
	*RootOptions
	Dir    string
	Upload bool
}

func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database",
		Long: `Write a consistent copy of the database to the backup directory.
The copy is encrypted when backup.passphrase is set and uploaded with
--upload when backup.s3 is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "backup directory (overrides backup.dir)")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "upload the snapshot to S3")
	cmd.AddCommand(newDecryptCommand(rootOpts))
	return cmd
}

func runBackup(opts *BackupOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	bc := a.cfg.Backup
	mopts := backup.Options{
		Dir:        bc.Dir,
		Passphrase: bc.Passphrase,
		Retention:  bc.Retention,
	}
	if opts.Dir != "" {
		mopts.Dir = opts.Dir
	}
	if opts.Upload {
		if !bc.S3.Enabled() {
			return fmt.Errorf("--upload needs backup.s3.bucket and credentials")
		}
		mopts.Bucket = bc.S3.Bucket
		mopts.Prefix = bc.S3.Prefix
		mopts.Uploader = backup.NewS3Client(bc.S3)
	}

	res, err := backup.NewManager(a.db, mopts, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wrote %s (%d bytes)\n", res.Path, res.Size)
	if res.Uploaded != "" {
		fmt.Fprintf(out, "uploaded s3://%s/%s\n", mopts.Bucket, res.Uploaded)
	}
	return nil
}

func newDecryptCommand(rootOpts *RootOptions) *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "decrypt <in> <out>",
		Short: "Decrypt an encrypted snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				passphrase = os.Getenv("CHORECHART_BACKUP_PASSPHRASE")
			}
			if passphrase == "" {
				return fmt.Errorf("a passphrase is required")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			plain, err := backup.Decrypt(data, passphrase)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], plain, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decrypted %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase (default $CHORECHART_BACKUP_PASSPHRASE)")
	return cmd
}
