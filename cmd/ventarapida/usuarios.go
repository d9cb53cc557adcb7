package main

import (
	"fmt"

	"ventarapida/internal/infra"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedUser struct {
	username string
	nombre   string
	email    string
	password string
	rol      string
	saldo    string
}

// ventarapida seed-user: creates the user or resets its password, role and balance.
var seedUserCmd = &cobra.Command{
	Use:   "seed-user",
	Short: "Create or update a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		saldo, err := decimal.NewFromString(seedUser.saldo)
		if err != nil {
			return fmt.Errorf("saldo invalido %q: %w", seedUser.saldo, err)
		}
		cfg, err := cargarConfig()
		if err != nil {
			return err
		}
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		svc := service.NewAuthService(repository.NewUsuarioRepository(db), cfg)
		nuevo := service.NuevoUsuario{
			Username: seedUser.username,
			Nombre:   seedUser.nombre,
			Password: seedUser.password,
			Rol:      seedUser.rol,
			Saldo:    saldo,
		}
		if seedUser.email != "" {
			nuevo.Email = &seedUser.email
		}
		u, err := svc.CrearOActualizar(cmd.Context(), nuevo)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Usuario '%s' (%s) creado/actualizado, saldo %s\n", u.Username, u.Rol, u.Saldo.StringFixed(2))
		return nil
	},
}

// ventarapida hash: prints a bcrypt hash for manual inserts.
var hashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := bcrypt.GenerateFromPassword([]byte(args[0]), service.BcryptCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(h))
		return nil
	},
}

func init() {
	f := seedUserCmd.Flags()
	f.StringVar(&seedUser.username, "username", "admin", "login")
	f.StringVar(&seedUser.nombre, "nombre", "Administrador", "display name")
	f.StringVar(&seedUser.email, "email", "", "e-mail")
	f.StringVar(&seedUser.password, "password", "", "password (required)")
	f.StringVar(&seedUser.rol, "rol", model.RolAdministrador, "administrador | vendedor | estoquista")
	f.StringVar(&seedUser.saldo, "saldo", "0", "initial balance")
	_ = seedUserCmd.MarkFlagRequired("password")
}
