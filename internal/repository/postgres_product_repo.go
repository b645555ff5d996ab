package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/equipman/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した機器レコードリポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// updatableColumns は部分更新で変更を許可するカラムの集合。
// created_by / created_atなどのメタデータはここに含めない。
var updatableColumns = map[string]bool{
	"tag":                        true,
	"unit_number":                true,
	"installed_at":               true,
	"updated_date":               true,
	"warranty_until":             true,
	"unit_model":                 true,
	"existing_power":             true,
	"proposal_status":            true,
	"deployment_status":          true,
	"region":                     true,
	"site":                       true,
	"latitude":                   true,
	"longitude":                  true,
	"mount_type":                 true,
	"azimuth":                    true,
	"primary_repeater":           true,
	"secondary_repeater":         true,
	"radio_firmware":             true,
	"melody_type":                true,
	"alarm_priority":             true,
	"primary_channel_id":         true,
	"secondary_channel_id":       true,
	"primary_radio_serial":       true,
	"primary_radio_model":        true,
	"secondary_radio_serial":     true,
	"secondary_radio_model":      true,
	"primary_converter_serial":   true,
	"secondary_converter_serial": true,
	"motherboard_firmware":       true,
	"motherboard":                true,
	"power_supply":               true,
	"primary_comm_board":         true,
	"secondary_comm_board":       true,
	"amplifiers":                 true,
	"notes":                      true,
}

// jsonbColumns はJSONBとして格納するカラムの集合。
var jsonbColumns = map[string]bool{
	"motherboard":          true,
	"power_supply":         true,
	"primary_comm_board":   true,
	"secondary_comm_board": true,
	"amplifiers":           true,
}

const productColumns = `id, tag, unit_number, installed_at, updated_date, warranty_until,
	unit_model, existing_power, proposal_status, deployment_status,
	region, site, latitude, longitude, mount_type, azimuth,
	primary_repeater, secondary_repeater,
	radio_firmware, melody_type, alarm_priority,
	primary_channel_id, secondary_channel_id,
	primary_radio_serial, primary_radio_model, secondary_radio_serial, secondary_radio_model,
	primary_converter_serial, secondary_converter_serial,
	motherboard_firmware, motherboard, power_supply, primary_comm_board, secondary_comm_board,
	amplifiers, notes, created_by, created_at, updated_at`

// Create は機器レコードを作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, p *model.Product) error {
	motherboard, powerSupply, primaryComm, secondaryComm, amplifiers, err := marshalComponents(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		         $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		         $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		         $31, $32, $33, $34, $35, $36, $37, $38, $39)`,
		p.ID, p.Tag, p.UnitNumber, p.InstalledAt, p.UpdatedDate, p.WarrantyUntil,
		p.UnitModel, p.ExistingPower, p.ProposalStatus, p.DeploymentStatus,
		p.Region, p.Site, p.Latitude, p.Longitude, p.MountType, p.Azimuth,
		p.PrimaryRepeater, p.SecondaryRepeater,
		p.RadioFirmware, p.MelodyType, p.AlarmPriority,
		p.PrimaryChannelID, p.SecondaryChannelID,
		p.PrimaryRadioSerial, p.PrimaryRadioModel, p.SecondaryRadioSerial, p.SecondaryRadioModel,
		p.PrimaryConverterSerial, p.SecondaryConverterSerial,
		p.MotherboardFirmware, motherboard, powerSupply, primaryComm, secondaryComm,
		amplifiers, p.Notes, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindByID は指定IDの機器を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// List は全機器の一覧を作成日時の降順で返す。
func (r *PostgresProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Update は変更対象フィールドのみを明示したマップで部分更新する。
// changesのキーはカラム名。許可リスト外のキーはエラーにする。
// updated_atは常に更新する。
func (r *PostgresProductRepo) Update(ctx context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}

	// SQLを決定的にするためキーをソートする
	columns := make([]string, 0, len(changes))
	for col := range changes {
		if !updatableColumns[col] {
			return fmt.Errorf("column is not updatable: %s", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	args = append(args, id)

	for i, col := range columns {
		val := changes[col]
		if jsonbColumns[col] {
			data, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("failed to marshal column %s: %w", col, err)
			}
			val = data
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+2))
		args = append(args, val)
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $1`, strings.Join(setClauses, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete は指定IDの機器を削除する。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// marshalComponents はJSONBカラムに格納するコンポーネント情報をシリアライズする。
func marshalComponents(p *model.Product) (motherboard, powerSupply, primaryComm, secondaryComm, amplifiers []byte, err error) {
	if motherboard, err = json.Marshal(p.Motherboard); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal motherboard: %w", err)
	}
	if powerSupply, err = json.Marshal(p.PowerSupply); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal power supply: %w", err)
	}
	if primaryComm, err = json.Marshal(p.PrimaryCommBoard); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal primary comm board: %w", err)
	}
	if secondaryComm, err = json.Marshal(p.SecondaryCommBoard); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal secondary comm board: %w", err)
	}
	amps := p.Amplifiers
	if amps == nil {
		amps = []model.SerialComponent{}
	}
	if amplifiers, err = json.Marshal(amps); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal amplifiers: %w", err)
	}
	return motherboard, powerSupply, primaryComm, secondaryComm, amplifiers, nil
}

// scanProduct は1行をmodel.Productに読み込む。
func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	var motherboard, powerSupply, primaryComm, secondaryComm, amplifiers []byte

	err := row.Scan(
		&p.ID, &p.Tag, &p.UnitNumber, &p.InstalledAt, &p.UpdatedDate, &p.WarrantyUntil,
		&p.UnitModel, &p.ExistingPower, &p.ProposalStatus, &p.DeploymentStatus,
		&p.Region, &p.Site, &p.Latitude, &p.Longitude, &p.MountType, &p.Azimuth,
		&p.PrimaryRepeater, &p.SecondaryRepeater,
		&p.RadioFirmware, &p.MelodyType, &p.AlarmPriority,
		&p.PrimaryChannelID, &p.SecondaryChannelID,
		&p.PrimaryRadioSerial, &p.PrimaryRadioModel, &p.SecondaryRadioSerial, &p.SecondaryRadioModel,
		&p.PrimaryConverterSerial, &p.SecondaryConverterSerial,
		&p.MotherboardFirmware, &motherboard, &powerSupply, &primaryComm, &secondaryComm,
		&amplifiers, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(motherboard, &p.Motherboard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal motherboard: %w", err)
	}
	if err := json.Unmarshal(powerSupply, &p.PowerSupply); err != nil {
		return nil, fmt.Errorf("failed to unmarshal power supply: %w", err)
	}
	if err := json.Unmarshal(primaryComm, &p.PrimaryCommBoard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal primary comm board: %w", err)
	}
	if err := json.Unmarshal(secondaryComm, &p.SecondaryCommBoard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secondary comm board: %w", err)
	}
	if err := json.Unmarshal(amplifiers, &p.Amplifiers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal amplifiers: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
