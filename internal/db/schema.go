package db

// SchemaSQL defines the board tables. The user, listing and barter_transaction
// tables belong to the marketplace and are only read here; they are declared
// schemaless so aggregate counts work on an empty database.
const SchemaSQL = `
    -- ==========================================================================
    -- PERSONA TABLE
    -- ==========================================================================
    -- Record ids are deterministic (persona:<role lower>) so seeding is idempotent.
    DEFINE TABLE IF NOT EXISTS persona SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS role ON persona TYPE string
        ASSERT $value IN ["CEO", "CTO", "CFO", "CMO", "COO", "CLO"];
    DEFINE FIELD IF NOT EXISTS display_name ON persona TYPE string;
    DEFINE FIELD IF NOT EXISTS localized_name ON persona TYPE string;
    DEFINE FIELD IF NOT EXISTS model_tier ON persona TYPE string
        ASSERT $value IN ["high", "standard"];
    DEFINE FIELD IF NOT EXISTS status ON persona TYPE string DEFAULT "active"
        ASSERT $value IN ["active", "inactive", "on_leave"];
    DEFINE FIELD IF NOT EXISTS created ON persona TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS persona_role ON persona FIELDS role UNIQUE;

    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS topic_localized ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS type ON conversation TYPE string
        ASSERT $value IN ["meeting", "question", "task_discussion", "brainstorm", "review"];
    DEFINE FIELD IF NOT EXISTS status ON conversation TYPE string DEFAULT "active"
        ASSERT $value IN ["active", "completed", "archived"];
    DEFINE FIELD IF NOT EXISTS initiator ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS active_flags ON conversation TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS summary ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS ended ON conversation TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS conversation_initiator ON conversation FIELDS initiator;
    DEFINE INDEX IF NOT EXISTS conversation_created ON conversation FIELDS created;

    -- ==========================================================================
    -- MESSAGE TABLE (append-only)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL
        PERMISSIONS FOR select, create FULL, FOR update, delete NONE;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS author_role ON message TYPE string
        ASSERT $value IN ["user", "assistant", "system"];
    DEFINE FIELD IF NOT EXISTS author_id ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS model_tier ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS input_tokens ON message TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS output_tokens ON message TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS tools_invoked ON message TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS ceo_mode ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON message TYPE datetime DEFAULT time::now() READONLY;

    DEFINE INDEX IF NOT EXISTS message_conversation_created ON message FIELDS conversation, created;

    -- ==========================================================================
    -- MARKETPLACE TABLES (read-only aggregates)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS user SCHEMALESS;
    DEFINE TABLE IF NOT EXISTS listing SCHEMALESS;
    DEFINE TABLE IF NOT EXISTS barter_transaction SCHEMALESS;
`
