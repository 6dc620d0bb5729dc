package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(32) NOT NULL DEFAULT 'customer',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_addresses (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	address_type VARCHAR(16) NOT NULL CHECK (address_type IN ('shipping', 'billing')),
	recipient_name VARCHAR(255) NOT NULL,
	phone VARCHAR(32) NOT NULL DEFAULT '',
	address_line TEXT NOT NULL,
	sub_district VARCHAR(255) NOT NULL DEFAULT '',
	district VARCHAR(255) NOT NULL DEFAULT '',
	province VARCHAR(255) NOT NULL DEFAULT '',
	zipcode VARCHAR(16) NOT NULL DEFAULT '',
	country VARCHAR(64) NOT NULL DEFAULT '',
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS user_addresses_one_default
	ON user_addresses (user_id, address_type) WHERE is_default;

CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	parent_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS category_translations (
	category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	lang VARCHAR(10) NOT NULL,
	name VARCHAR(255) NOT NULL,
	slug VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (category_id, lang),
	UNIQUE (lang, slug)
);

CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	sku VARCHAR(64) NOT NULL UNIQUE,
	price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
	stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
	category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_translations (
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	lang VARCHAR(10) NOT NULL,
	name VARCHAR(255) NOT NULL,
	slug VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (product_id, lang),
	UNIQUE (lang, slug)
);

CREATE TABLE IF NOT EXISTS blog_posts (
	id BIGSERIAL PRIMARY KEY,
	author_id BIGINT NOT NULL REFERENCES users(id),
	category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
	is_published BOOLEAN NOT NULL DEFAULT FALSE,
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS blog_post_translations (
	post_id BIGINT NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
	lang VARCHAR(10) NOT NULL,
	title VARCHAR(255) NOT NULL,
	slug VARCHAR(255) NOT NULL,
	excerpt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (post_id, lang),
	UNIQUE (lang, slug)
);

CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	invoice_no VARCHAR(64) NOT NULL UNIQUE,
	user_id BIGINT NOT NULL REFERENCES users(id),
	order_status VARCHAR(32) NOT NULL DEFAULT 'pending',
	is_bulk_order BOOLEAN NOT NULL DEFAULT FALSE,
	bulk_order_type VARCHAR(16) CHECK (bulk_order_type IN ('solution', 'equipment')),
	payment_method VARCHAR(32) NOT NULL DEFAULT '',
	shipping_address_id BIGINT REFERENCES user_addresses(id) ON DELETE SET NULL,
	billing_address_id BIGINT REFERENCES user_addresses(id) ON DELETE SET NULL,
	subtotal NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (subtotal >= 0),
	shipping_cost NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (shipping_cost >= 0),
	tax_amount NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (tax_amount >= 0),
	total_amount NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (total_amount >= 0),
	tracking_number VARCHAR(128),
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id);

CREATE TABLE IF NOT EXISTS order_items (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id BIGINT NOT NULL REFERENCES products(id),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0),
	subtotal NUMERIC(12, 2) NOT NULL CHECK (subtotal >= 0)
);
CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id);

CREATE TABLE IF NOT EXISTS order_payment_details (
	order_id BIGINT PRIMARY KEY REFERENCES orders(id) ON DELETE CASCADE,
	gateway_status VARCHAR(32) NOT NULL,
	details JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS invoices (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	invoice_number VARCHAR(64) NOT NULL UNIQUE,
	issue_date TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	subtotal NUMERIC(12, 2) NOT NULL,
	tax_amount NUMERIC(12, 2) NOT NULL,
	shipping_cost NUMERIC(12, 2) NOT NULL,
	total_amount NUMERIC(12, 2) NOT NULL,
	payment_status VARCHAR(32) NOT NULL DEFAULT 'pending',
	address_line TEXT NOT NULL,
	sub_district VARCHAR(255) NOT NULL DEFAULT '',
	district VARCHAR(255) NOT NULL DEFAULT '',
	province VARCHAR(255) NOT NULL DEFAULT '',
	zipcode VARCHAR(16) NOT NULL DEFAULT '',
	country VARCHAR(64) NOT NULL DEFAULT '',
	phone VARCHAR(32) NOT NULL DEFAULT '',
	customer_name VARCHAR(255) NOT NULL,
	tracking VARCHAR(128),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS invoices_order_id_idx ON invoices (order_id);

CREATE TABLE IF NOT EXISTS payment_transactions (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
	payment_method VARCHAR(32) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	gateway_reference VARCHAR(128) NOT NULL UNIQUE,
	payment_date TIMESTAMPTZ,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS payment_transactions_order_id_idx ON payment_transactions (order_id);
`
