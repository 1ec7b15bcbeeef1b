package store

type Patient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (db *DB) CreatePatient(name string) (*Patient, error) {
	id, err := db.insertID(db.DB, `INSERT INTO patients (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return &Patient{ID: id, Name: name}, nil
}

func (db *DB) GetPatient(id int64) (*Patient, error) {
	var p Patient
	err := db.QueryRow(db.Q(`SELECT id, name FROM patients WHERE id = ?`), id).Scan(&p.ID, &p.Name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListPatients() ([]*Patient, error) {
	rows, err := db.Query(`SELECT id, name FROM patients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}
