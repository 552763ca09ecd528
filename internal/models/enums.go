package models

type GradeLevel string

const (
	GradePrejardin  GradeLevel = "Prejardín"
	GradeJardin     GradeLevel = "Jardín"
	GradeTransicion GradeLevel = "Transición"
	GradePrimero    GradeLevel = "Primero"
	GradeSegundo    GradeLevel = "Segundo"
	GradeTercero    GradeLevel = "Tercero"
	GradeCuarto     GradeLevel = "Cuarto"
	GradeQuinto     GradeLevel = "Quinto"
	GradeSexto      GradeLevel = "Sexto"
	GradeSeptimo    GradeLevel = "Séptimo"
	GradeOctavo     GradeLevel = "Octavo"
	GradeNoveno     GradeLevel = "Noveno"
	GradeDecimo     GradeLevel = "Décimo"
	GradeOnce       GradeLevel = "Once"
)

// GradeLevels lists the levels in academic order.
var GradeLevels = []GradeLevel{
	GradePrejardin, GradeJardin, GradeTransicion,
	GradePrimero, GradeSegundo, GradeTercero, GradeCuarto, GradeQuinto,
	GradeSexto, GradeSeptimo, GradeOctavo, GradeNoveno, GradeDecimo, GradeOnce,
}

func (g GradeLevel) IsValid() bool {
	for _, level := range GradeLevels {
		if level == g {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "Efectivo"
	PaymentTransfer    PaymentMethod = "Transferencia"
	PaymentCard        PaymentMethod = "Tarjeta"
	PaymentBankDeposit PaymentMethod = "Consignación"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentTransfer, PaymentCard, PaymentBankDeposit}

func (m PaymentMethod) IsValid() bool {
	for _, method := range PaymentMethods {
		if method == m {
			return true
		}
	}
	return false
}

type BehaviorKind string

const (
	BehaviorPositive BehaviorKind = "Positiva"
	BehaviorNegative BehaviorKind = "Negativa"
	BehaviorNeutral  BehaviorKind = "Neutral"
)
