package classkema

// Package classkema attaches validation schemas to Go struct types and
// validates values against them:
//
// - Per-class declarations through Decorate (or `classkema` struct tags), one fragment per property
// - Inheritance through struct embedding: ancestor fragments merge first, descendants override
// - Default fragments inferred from declared Go types
// - Compiled object schemas cached per class (Compile), exported as JSON Schema (Describe)
// - A validator facade (Validate, ValidateAsClass, ValidateArrayAsClass) returning Result values
// - Argument validation for plain functions (ValidateArgs)
//
// Design policy:
// - Schemas are built and run by the rule package; classkema only assembles them per class.
// - Declaration mistakes are Go errors (ConstraintDefinitionError and friends); data mistakes are Issues in a Result.
// - Declare everything before the first validation; compiled classes are frozen.
//
// Typical usage:
//
//	type User struct {
//	    Name  string `json:"name" classkema:"string,min=3,required"`
//	    Email string `json:"email"`
//	}
//
//	func init() {
//	    classkema.MustDecorate[User](
//	        classkema.Prop("email", classkema.String().Email().Required()),
//	    )
//	}
//
//	res, err := classkema.Validate(User{Name: "al"})
//	// err == nil; res.Failed() == true; res.Error.Issues[0].Code == "string.min"
